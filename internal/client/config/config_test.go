package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, "vanish.db", c.PendingDBPath)
	assert.Equal(t, 250*time.Millisecond, c.TickInterval)
	assert.Equal(t, 5*time.Second, c.RetryInterval)
}

func TestLoadConfig_EnvThenFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	envFile = "does-not-exist.env"

	t.Setenv("VANISH_ACCESS_TOKEN", "env-token")
	t.Setenv("VANISH_SERVER_ADDR", "env:1")
	os.Args = []string{"testbin", "-a", "flag:2"}

	cfg := LoadConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "env-token", cfg.AccessToken)
	assert.Equal(t, "flag:2", cfg.ServerEndpointAddr)
}
