package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tournevent/invoicebridge/internal/scheduler"
	"github.com/tournevent/invoicebridge/internal/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "invoicebridge",
	Short:        "GBP to Zipnova bridge - ships invoiced orders and writes tracking back",
	Version:      version,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the periodic sync",
	RunE:  runServe,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single sync pass and print its summary",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.close(context.Background())

	cfg := app.config
	app.logger.Info("Starting invoicebridge",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Bool("sync_enabled", cfg.SyncEnabled),
		zap.Bool("gbp_mock", cfg.GBPUseMock),
		zap.Bool("zipnova_mock", cfg.ZipnovaUseMock),
	)

	srv := server.New(server.Config{Port: cfg.Port}, app.orchestrator, app.orders, app.registry, app.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if cfg.SyncEnabled {
		sched := scheduler.New(cfg.SyncInterval(), app.orchestrator, app.logger)
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	return g.Wait()
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.close(context.Background())

	summary, runErr := app.orchestrator.Run(ctx)
	if summary != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	}
	return runErr
}
