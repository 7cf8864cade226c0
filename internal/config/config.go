package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Room   RoomConfig   `mapstructure:"room"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port      string `mapstructure:"port"`
	Mode      string `mapstructure:"mode"` // debug, release
	StaticDir string `mapstructure:"staticDir"`
}

type RoomConfig struct {
	Count      int `mapstructure:"count"`
	MaxPlayers int `mapstructure:"maxPlayers"`
}

type LogConfig struct {
	// Level overrides the mode's default verbosity when set
	// (debug/info/warn/error).
	Level string `mapstructure:"level"`
}

var GlobalConfig *Config

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      "8000",
			Mode:      "debug",
			StaticDir: "./web",
		},
		Room: RoomConfig{
			Count:      10,
			MaxPlayers: 8,
		},
	}
}

// LoadConfig reads path if present and overlays it onto the defaults. A
// missing config file is not fatal: the service works out of the box on
// port 8000 with ten rooms.
func LoadConfig(path string) {
	cfg := defaults()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.SetDefault("server.port", cfg.Server.Port)
	viper.SetDefault("server.mode", cfg.Server.Mode)
	viper.SetDefault("server.staticDir", cfg.Server.StaticDir)
	viper.SetDefault("room.count", cfg.Room.Count)
	viper.SetDefault("room.maxPlayers", cfg.Room.MaxPlayers)
	viper.SetDefault("log.level", cfg.Log.Level)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("error reading config file: %s", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("unable to decode config: %v", err)
	}
	GlobalConfig = cfg
}
