package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/vanish/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the backend server
//	-t string   access token
//	-f string   pending finalize database file
//	-i int      countdown tick interval in milliseconds
//	-r int      finalize retry interval in seconds
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-f", "-i", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	fs.StringVar(&cfg.PendingDBPath, "f", cfg.PendingDBPath, "pending finalize database file")
	tick := fs.Int("i", int(cfg.TickInterval.Milliseconds()), "countdown tick interval (in milliseconds)")
	retry := fs.Int("r", int(cfg.RetryInterval.Seconds()), "finalize retry interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.TickInterval = time.Duration(*tick) * time.Millisecond
	cfg.RetryInterval = time.Duration(*retry) * time.Second
}
