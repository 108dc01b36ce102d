// Command dtogen generates TypeScript DTO and Mongoose model files from
// schema files.
//
// Usage:
//
//	dtogen generate schemas/user.cue --out src
//	dtogen assist generate "a blog post with tags" --save post.yaml
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/matthewbaird/dtobuddy/internal/cli"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("dtogen: ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(cli.Options{}).ExecuteContext(ctx); err != nil {
		log.Print(color.RedString("%v", err))
		stop()
		os.Exit(1)
	}
}
