package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/avvvet/voicebuddy-actions/internal/actions"
	"github.com/avvvet/voicebuddy-actions/internal/availability"
	"github.com/avvvet/voicebuddy-actions/internal/config"
	"github.com/avvvet/voicebuddy-actions/internal/handlers"
	"github.com/avvvet/voicebuddy-actions/internal/logging"
	"github.com/avvvet/voicebuddy-actions/internal/memory"
	"github.com/avvvet/voicebuddy-actions/internal/metrics"
	"github.com/avvvet/voicebuddy-actions/internal/transport"
)

func main() {
	if err := run(); err != nil {
		logging.L().Error("voice actions service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (for development)
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	logging.SetDefault(logger)
	if envErr != nil {
		logger.Debug("no .env file found, using environment variables")
	}

	logger.Info("starting voice actions service",
		"nats_url", cfg.NatsURL,
		"redis_url", cfg.RedisURL,
		"languages", len(cfg.Languages.Availables),
		"default_lang", cfg.Languages.DefaultShortCode,
	)

	// Action registry, a broken declaration stops the service here
	registry, err := actions.NewDefaultRegistry(actions.Deps{
		Slots: availability.NewFileSource(cfg.SlotsFile),
	})
	if err != nil {
		return fmt.Errorf("invalid action registry: %w", err)
	}
	logger.Info("actions registered", "actions", registry.Names())

	redisStore, err := memory.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	manager := memory.NewManager(redisStore, memory.Defaults{
		Lang:        cfg.Languages,
		ProsodyRate: cfg.ProsodyRate,
		BotName:     cfg.BotName,
		BotCompany:  cfg.BotCompany,
	}, logger)
	defer manager.Close()

	m := metrics.New()
	dispatcher := actions.NewDispatcher(registry,
		actions.WithLogger(logger),
		actions.WithObserver(m),
	)

	conn, err := transport.Connect(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize NATS: %w", err)
	}
	defer conn.Close()

	handler := handlers.NewActionHandler(manager, dispatcher, transport.NewEffectsFactory(conn, cfg), logger).
		WithRecorder(m).
		WithActionTimeout(cfg.ActionTimeout)

	natsTransport := transport.NewNATSTransport(conn, cfg, handler, logger)
	if err := natsTransport.Start(); err != nil {
		return fmt.Errorf("failed to start NATS transport: %w", err)
	}

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	logger.Info("voice actions service is running", "metrics_addr", cfg.MetricsAddr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("shutting down gracefully", "signal", sig.String(), "active_sessions", manager.ActiveSessionCount())

	// In-flight actions may take their whole budget
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.ActionTimeout+cfg.SideEffectTimeout)
	defer cancelDrain()
	if err := natsTransport.Close(drainCtx); err != nil {
		logger.Warn("error closing NATS transport", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Warn("error stopping metrics server", "error", err)
	}

	logger.Info("voice actions service stopped")
	return nil
}
