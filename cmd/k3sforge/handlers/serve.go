package handlers

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/imamik/k3sforge/internal/server"
)

// Serve runs the composition API until ctx is cancelled.
func Serve(ctx context.Context, log logr.Logger, addr string) error {
	log.Info("serving composition api", "addr", addr)
	return server.New(log.WithName("server")).Listen(ctx, addr)
}
