package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"thirteen-rooms/internal/room"
	"thirteen-rooms/internal/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the health check, the two WebSocket endpoints, and
// the static front-end catch-all onto r.
func RegisterRoutes(r *gin.Engine, rooms *room.Manager, staticDir string) {
	wsHandler := ws.NewHandler(rooms)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.GET("/ws/lobby", wsHandler.HandleLobbyWS)
	r.GET("/ws/room/:roomId", wsHandler.HandleRoomWS)

	registerStatic(r, staticDir)
}

// registerStatic serves the front-end assets for every unmatched path. A
// path with no matching file falls back to index.html so client-side
// routes resolve; if the static directory is absent entirely the handler
// 404s and the service is WebSocket-only.
func registerStatic(r *gin.Engine, staticDir string) {
	r.NoRoute(func(c *gin.Context) {
		reqPath := strings.TrimPrefix(c.Request.URL.Path, "/")
		if reqPath == "" {
			reqPath = "index.html"
		}
		full := filepath.Join(staticDir, filepath.Clean("/"+reqPath))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			c.File(full)
			return
		}
		index := filepath.Join(staticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			c.File(index)
			return
		}
		c.Status(http.StatusNotFound)
	})
}
