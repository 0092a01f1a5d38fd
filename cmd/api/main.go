package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/config"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/handler"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/analytics"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/auth"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/supervisor"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/tools"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("digital twin backend: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logg.Sync()

	if envErr != nil {
		logg.Warn("no .env file loaded, using process environment only", "error", envErr)
	}
	if cfg.Auth.DevSecret {
		logg.Warn("AUTH_SECRET not set, signing tokens with the development secret")
	}

	db, closeDB, err := store.New(ctx, cfg.Database.Driver, cfg.Database.DSN, logg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}
	defer func() {
		if err := closeDB(); err != nil {
			logg.Warn("failed to close store", "error", err)
		}
	}()

	if err := seed(ctx, db, cfg.SeedFile, logg); err != nil {
		return fmt.Errorf("seed personas: %w", err)
	}

	sink, err := newAnalytics(ctx, cfg.Analytics, logg)
	if err != nil {
		return fmt.Errorf("initialize %s analytics: %w", cfg.Analytics.Backend, err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logg.Warn("failed to flush analytics", "error", err)
		}
	}()

	briefings := ai.NewService(db, logg)
	deps := handler.Deps{
		Personas:  db,
		Briefings: briefings,
		Auth:      auth.NewService(db, cfg.Auth.Secret, cfg.Auth.TTL, logg),
		Analytics: sink,
		Log:       logg,
	}

	if cfg.AI.Enabled() {
		if err := wireAgents(ctx, cfg, db, briefings, sink, logg, &deps); err != nil {
			logg.Warn("continuing without chat model", "error", err)
		} else {
			logg.Info("chat model initialized", "model", cfg.AI.Model)
		}
	} else {
		logg.Info("chat model credentials not configured, conversational routes disabled")
	}

	return startServer(ctx, cfg.Server, handler.NewRouter(deps), logg)
}

func wireAgents(ctx context.Context, cfg *config.Config, db store.Store, briefings *ai.Service, sink analytics.Sink, logg *logger.Logger, deps *handler.Deps) error {
	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		return fmt.Errorf("chat model: %w", err)
	}

	registry, err := tools.NewDefaultRegistry(cfg.Tools)
	if err != nil {
		return fmt.Errorf("tool registry: %w", err)
	}

	a, err := agent.New(ctx, chatModel, registry, agent.Config{
		MaxIterations:    cfg.Agent.MaxIterations,
		MaxParseFailures: cfg.Agent.MaxParseFailures,
	}, logg)
	if err != nil {
		return err
	}

	router, err := supervisor.NewRouter(ctx, chatModel)
	if err != nil {
		return err
	}
	sup, err := supervisor.New(ctx, briefings, router, a, cfg.Agent.Confidence, logg)
	if err != nil {
		return err
	}

	deps.Agent = a
	deps.Supervisor = sup
	deps.Chat = chat.NewService(db, briefings, a, sink, logg)
	logg.Info("agents ready", "tools", registry.Names())
	return nil
}

func seed(ctx context.Context, db persona.Store, file string, logg *logger.Logger) error {
	profiles := persona.Seed()
	if file != "" {
		loaded, err := persona.LoadSeedFile(file)
		if err != nil {
			return err
		}
		profiles = loaded
	}
	n, err := store.SeedIfEmpty(ctx, db, profiles)
	if err != nil {
		return err
	}
	if n > 0 {
		logg.Info("seeded personas", "count", n, "file", file)
	}
	return nil
}

type closingSink interface {
	analytics.Sink
	Close() error
}

type nopSink struct{ analytics.Nop }

func (nopSink) Close() error { return nil }

func newAnalytics(ctx context.Context, cfg config.AnalyticsConfig, logg *logger.Logger) (closingSink, error) {
	var w analytics.Writer
	switch cfg.Backend {
	case "none":
		return nopSink{}, nil
	case "redis":
		rw, err := analytics.NewRedisWriter(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		w = rw
	default:
		fw, err := analytics.NewFileWriter(cfg.Dir)
		if err != nil {
			return nil, err
		}
		w = fw
	}
	logg.Info("analytics enabled", "backend", cfg.Backend)
	return analytics.NewAsync(w, cfg.Buffer, logg), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logg *logger.Logger) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logg.Info("digital twin backend listening", "addr", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logg.Info("server stopped")
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
