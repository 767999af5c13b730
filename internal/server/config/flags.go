package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/vanish/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-h string   admin HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-m string   storage mode: postgres | memory
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-v int      presigned URL validity, seconds
//	-l int      claims per viewer per minute
//	-k int      claim burst
//	-i int      reaper interval, seconds
//	-o int      unopened media TTL, hours
//	-r          allow repeat views of non-view-once media
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-h", "-d", "-m", "-s", "-t", "-u", "-p", "-b", "-g", "-e", "-v", "-l", "-k", "-i", "-o", "-r"},
		"-r")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run gRPC server")
	fs.StringVar(&config.EndpointAddrHTTP, "h", config.EndpointAddrHTTP, "address and port to run admin HTTP server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageMode, "m", config.StorageMode, "storage mode (postgres|memory)")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	presignValidity := fs.Int("v", int(config.PresignValidity.Seconds()), "presigned URL validity (in seconds)")
	fs.IntVar(&config.ClaimRatePerMinute, "l", config.ClaimRatePerMinute, "claims per viewer per minute")
	fs.IntVar(&config.ClaimBurst, "k", config.ClaimBurst, "claim burst")
	reaperInterval := fs.Int("i", int(config.ReaperInterval.Seconds()), "reaper interval (in seconds)")
	unopenedTTL := fs.Int("o", int(config.UnopenedTTL.Hours()), "unopened media TTL (in hours)")
	fs.BoolVar(&config.AllowRepeatViews, "r", config.AllowRepeatViews, "allow repeat views")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.PresignValidity = time.Duration(*presignValidity) * time.Second
	config.ReaperInterval = time.Duration(*reaperInterval) * time.Second
	config.UnopenedTTL = time.Duration(*unopenedTTL) * time.Hour
}
