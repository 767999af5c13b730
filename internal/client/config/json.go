package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/vanish/internal/flagx"
	"github.com/dmitrijs2005/vanish/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell an absent key from a zero value, so only keys present in the
// file override earlier layers.
type JsonConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	AccessToken        *string         `json:"access_token"`
	PendingDBPath      *string         `json:"pending_db_path"`
	TickInterval       *timex.Duration `json:"tick_interval"`
	RetryInterval      *timex.Duration `json:"retry_interval"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.AccessToken != nil {
		cfg.AccessToken = *jc.AccessToken
	}
	if jc.PendingDBPath != nil {
		cfg.PendingDBPath = *jc.PendingDBPath
	}
	if jc.TickInterval != nil {
		cfg.TickInterval = time.Duration(jc.TickInterval.Duration)
	}
	if jc.RetryInterval != nil {
		cfg.RetryInterval = time.Duration(jc.RetryInterval.Duration)
	}
}
