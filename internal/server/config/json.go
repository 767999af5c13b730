package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/vanish/internal/flagx"
	"github.com/dmitrijs2005/vanish/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// Only keys present in the file override the current Config.
type JsonConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	StorageMode                 *string         `json:"storage_mode"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	PresignValidity             *timex.Duration `json:"presign_validity"`
	ClaimRatePerMinute          *int            `json:"claim_rate_per_minute"`
	ClaimBurst                  *int            `json:"claim_burst"`
	ReaperInterval              *timex.Duration `json:"reaper_interval"`
	UnopenedTTL                 *timex.Duration `json:"unopened_ttl"`
	AllowRepeatViews            *bool           `json:"allow_repeat_views"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDur(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

// parseJson loads configuration values from the JSON file named by the -c
// or -config flag. Without the flag nothing is loaded. An unreadable or
// invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIf(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.StorageMode, c.StorageMode)
	setIf(&config.SecretKey, c.SecretKey)
	setDur(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setIf(&config.S3RootUser, c.S3RootUser)
	setIf(&config.S3RootPassword, c.S3RootPassword)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDur(&config.PresignValidity, c.PresignValidity)
	setIf(&config.ClaimRatePerMinute, c.ClaimRatePerMinute)
	setIf(&config.ClaimBurst, c.ClaimBurst)
	setDur(&config.ReaperInterval, c.ReaperInterval)
	setDur(&config.UnopenedTTL, c.UnopenedTTL)
	setIf(&config.AllowRepeatViews, c.AllowRepeatViews)
}
