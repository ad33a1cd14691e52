package main

import (
	"context"
	"time"

	gecho "github.com/fwojciec/gleaner/echo"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the wait for in-flight requests on exit.
const shutdownTimeout = 10 * time.Second

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr       string        `short:"a" help:"Listen address (default :8080)"`
	MaxTimeout time.Duration `help:"Upper bound for per-request extraction timeouts"`
	RateLimit  float64       `help:"Requests per second allowed per client IP (0 disables)"`
}

// Run executes the serve command until the context is cancelled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	cfg := deps.Config.Server
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}
	if c.MaxTimeout > 0 {
		cfg.MaxTimeout = c.MaxTimeout
	}
	if c.RateLimit > 0 {
		cfg.RateLimit = c.RateLimit
	}

	server := gecho.NewServer(deps.Service, deps.Logger, gecho.Config{
		MaxTimeout: cfg.MaxTimeout,
		BodyLimit:  cfg.BodyLimit,
		RateLimit:  cfg.RateLimit,
	})

	g, gCtx := errgroup.WithContext(deps.Ctx)

	g.Go(func() error {
		deps.Logger.InfoContext(gCtx, "starting server", "addr", cfg.Addr)
		return server.Start(cfg.Addr)
	})

	g.Go(func() error {
		<-gCtx.Done()
		deps.Logger.InfoContext(context.Background(), "shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(ctx)
	})

	return g.Wait()
}
