// Package main is the entry point for the Vikflow binary. It serves two
// invocation surfaces: launcher plugin callbacks (`vikflow query <json>`
// and friends) and the maintenance CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vikflow/vikflow/internal/cli"
	"github.com/vikflow/vikflow/internal/config"
	"github.com/vikflow/vikflow/internal/debuglog"
	"github.com/vikflow/vikflow/internal/launcher"
	"github.com/vikflow/vikflow/internal/profile"
	"github.com/vikflow/vikflow/internal/router"
	"github.com/vikflow/vikflow/internal/secrets"
	"github.com/vikflow/vikflow/internal/vikunja"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	args := os.Args[1:]

	if launcher.IsPluginInvocation(args) {
		if err := runPlugin(ctx, args); err != nil {
			// stdout belongs to the protocol; errors go to stderr only.
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	app := cli.New()
	if err := app.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runPlugin handles a single launcher callback.
func runPlugin(ctx context.Context, args []string) error {
	log := debuglog.FromEnv()
	defer log.Close()

	paths := config.GetPaths()
	store, err := profile.NewStore(paths.ProfilesFile, secrets.Select())
	if err != nil {
		return err
	}

	session := router.NewSession(store, vikunja.New())
	plugin := launcher.New(session, os.Stdout, log)
	return plugin.Run(ctx, args)
}
