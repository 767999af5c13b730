package config

import (
	"os"

	"github.com/joho/godotenv"
)

var envFile = ".env"

// parseEnv reads VANISH_SERVER_ADDR and VANISH_ACCESS_TOKEN so the token
// does not have to appear on the command line.
func parseEnv(cfg *Config) {
	_ = godotenv.Load(envFile)

	if v, ok := os.LookupEnv("VANISH_SERVER_ADDR"); ok {
		cfg.ServerEndpointAddr = v
	}
	if v, ok := os.LookupEnv("VANISH_ACCESS_TOKEN"); ok {
		cfg.AccessToken = v
	}
}
