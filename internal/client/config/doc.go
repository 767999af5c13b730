// Package config loads runtime configuration for the vanish CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. .env file and VANISH_SERVER_ADDR / VANISH_ACCESS_TOKEN.
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "250ms" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "pending_db_path": "vanish.db",
//	  "tick_interval": "250ms"
//	}
package config
