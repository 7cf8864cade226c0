// Package randutil provides a crypto/rand-backed source for the shuffles
// and seat/dealer draws the game engine needs. No seed is ever exposed —
// every call draws fresh entropy from the OS.
package randutil

import (
	"crypto/rand"
	"math/big"
)

// Intn returns a uniform random int in [0, n). Panics if n <= 0, mirroring
// math/rand's Intn contract.
func Intn(n int) int {
	if n <= 0 {
		panic("randutil: Intn called with n <= 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand reading from the OS source failing is not
		// something callers can sensibly recover from.
		panic(err)
	}
	return int(v.Int64())
}

// Shuffle permutes data in place using the Fisher-Yates algorithm, drawing
// each swap index from the crypto/rand source.
func Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := Intn(i + 1)
		swap(i, j)
	}
}
