package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_grpc":             "www.example:9000",
		"database_dsn":                   "postgres://x",
		"storage_mode":                   "memory",
		"access_token_validity_duration": "10m",
		"presign_validity":               "45s",
		"claim_rate_per_minute":          12,
		"unopened_ttl":                   "48h",
		"allow_repeat_views":             true,
	})

	t.Run("loads only present keys", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, StorageMemory, cfg.StorageMode)
		assert.Equal(t, 10*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 45*time.Second, cfg.PresignValidity)
		assert.Equal(t, 12, cfg.ClaimRatePerMinute)
		assert.Equal(t, 48*time.Hour, cfg.UnopenedTTL)
		assert.True(t, cfg.AllowRepeatViews)

		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, 10, cfg.ClaimBurst)
		assert.Equal(t, "media", cfg.S3Bucket)
	})

	t.Run("short flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", pathFlag}

		cfg := &Config{}
		parseJson(cfg)
		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrGRPC: "defaults:1234", ClaimBurst: 2}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, 2, cfg.ClaimBurst)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
