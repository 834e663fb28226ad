package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerURL  string
	ListenAddr string
	LogLevel   string
}

// Load reads .env when present, then the environment, with defaults that
// point the client at a local stub service.
func Load(log logrus.FieldLogger) *Config {
	_ = godotenv.Load()

	c := &Config{
		ServerURL:  getEnv("ROOMFEED_SERVER_URL", "http://localhost:8080"),
		ListenAddr: getEnv("ROOMFEED_LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("ROOMFEED_LOG_LEVEL", "info"),
	}
	log.WithFields(logrus.Fields{
		"server_url":  c.ServerURL,
		"listen_addr": c.ListenAddr,
	}).Info("config loaded")
	return c
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Level parses the configured log level, defaulting to info.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
