// Package main is the entry point for the k3sforge CLI.
//
// k3sforge composes a multi-role k3s cluster on Hetzner Cloud from one
// feature spec: node scripts, Kubernetes manifests, network rules and the
// external resources they depend on, and optionally provisions it.
//
// Commands: init, validate, plan, apply, cost, status, serve, keygen, version.
//
// For detailed usage information, run:
//
//	k3sforge --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/k3sforge/cmd/k3sforge/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
