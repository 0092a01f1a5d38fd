// Command twinctl is the operator CLI: it asks personas questions from the
// terminal and manages the persona store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/config"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/store"
)

var (
	timeout time.Duration
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "twinctl",
	Short:         "Operate the digital twin backend from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall command timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level and print reasoning steps")

	rootCmd.AddCommand(askCmd, chatCmd, seedCmd, migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is the shared state every subcommand starts from.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    store.Store
	close func() error
}

func bootstrap(ctx context.Context) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	mode := "prod"
	if verbose {
		mode = "dev"
	}
	logg, err := logger.New(mode)
	if err != nil {
		return nil, err
	}

	db, closeDB, err := store.New(ctx, cfg.Database.Driver, cfg.Database.DSN, logg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}
	return &app{cfg: cfg, log: logg, db: db, close: closeDB}, nil
}

func (rt *app) Close() {
	if err := rt.close(); err != nil {
		rt.log.Warn("failed to close store", "error", err)
	}
	rt.log.Sync()
}
