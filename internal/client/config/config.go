package config

import "time"

// Config holds runtime settings for the vanish CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - AccessToken: bearer token issued by the server ("server token <id>").
//   - PendingDBPath: SQLite file holding unacknowledged finalizes.
//   - TickInterval: countdown re-render period of the viewer.
//   - RetryInterval: how often parked finalizes are retried.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	PendingDBPath      string
	TickInterval       time.Duration
	RetryInterval      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.AccessToken = ""
	c.PendingDBPath = "vanish.db"
	c.TickInterval = 250 * time.Millisecond
	c.RetryInterval = 5 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
