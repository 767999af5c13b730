// Command server runs the vanish protected media server.
//
// Usage:
//
//	server [flags]               run the gRPC and admin HTTP endpoints
//	server token <user-id>       print an access token for user-id
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/vanish/internal/server"
	"github.com/dmitrijs2005/vanish/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	if len(os.Args) > 2 && os.Args[1] == "token" {
		tok, err := server.IssueToken(cfg, os.Args[2])
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(tok)
		return
	}

	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
