package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/voicebridge/voicebridge/internal/dependency"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the voicebridge server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	c, err := dependency.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("voicebridge %s listening on %s:%d\n", version, cfg.Server.Host, cfg.Server.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Server().Start(gctx) })
	g.Go(func() error { return c.Scheduler().Start(gctx) })
	g.Go(func() error { return c.ChannelManager().Start(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println("voicebridge stopped")
	return nil
}
