package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded if present; real environment variables win over it.
var envFile = ".env"

// parseEnv overlays VANISH_* environment variables. Durations use Go
// syntax ("90s", "168h"). Malformed values panic, like a bad JSON file.
func parseEnv(config *Config) {
	_ = godotenv.Load(envFile)

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(err)
			}
			*dst = n
		}
	}

	str("VANISH_GRPC_ADDR", &config.EndpointAddrGRPC)
	str("VANISH_HTTP_ADDR", &config.EndpointAddrHTTP)
	str("VANISH_DATABASE_DSN", &config.DatabaseDSN)
	str("VANISH_STORAGE_MODE", &config.StorageMode)
	str("VANISH_SECRET_KEY", &config.SecretKey)
	dur("VANISH_ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	str("VANISH_S3_ROOT_USER", &config.S3RootUser)
	str("VANISH_S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("VANISH_S3_BUCKET", &config.S3Bucket)
	str("VANISH_S3_REGION", &config.S3Region)
	str("VANISH_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	dur("VANISH_PRESIGN_VALIDITY", &config.PresignValidity)
	num("VANISH_CLAIM_RATE_PER_MINUTE", &config.ClaimRatePerMinute)
	num("VANISH_CLAIM_BURST", &config.ClaimBurst)
	dur("VANISH_REAPER_INTERVAL", &config.ReaperInterval)
	dur("VANISH_UNOPENED_TTL", &config.UnopenedTTL)

	if v, ok := os.LookupEnv("VANISH_ALLOW_REPEAT_VIEWS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.AllowRepeatViews = b
	}
}
