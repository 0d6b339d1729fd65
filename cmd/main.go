package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/servicelog/internal/auth"
	"github.com/ukydev/servicelog/internal/autosave"
	"github.com/ukydev/servicelog/internal/browser"
	"github.com/ukydev/servicelog/internal/config"
	"github.com/ukydev/servicelog/internal/events"
	"github.com/ukydev/servicelog/internal/form"
	"github.com/ukydev/servicelog/internal/handlers"
	"github.com/ukydev/servicelog/internal/metrics"
	"github.com/ukydev/servicelog/internal/store"
)

// app holds the wired service.
type app struct {
	server    *http.Server
	ctrl      *autosave.Controller
	store     *store.Store
	publisher *events.MQTTPublisher
}

func setupLogger(cfg config.LogConfig) (*log.Logger, error) {
	logger := log.New()
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// newApp wires the store, its listeners, the form session and the HTTP API.
// connect is used to reach the MQTT broker when one is configured.
func newApp(cfg *config.Config, logger *log.Logger, connect func(events.MQTTConfig, log.FieldLogger) (*events.MQTTPublisher, error)) (*app, error) {
	recorder := metrics.NewRecorder()
	listeners := events.Multi{recorder}

	var publisher *events.MQTTPublisher
	if cfg.MQTT.BrokerURL != "" {
		p, err := connect(events.MQTTConfig{
			BrokerURL:   cfg.MQTT.BrokerURL,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, logger.WithField("component", "mqtt"))
		if err != nil {
			return nil, err
		}
		publisher = p
		listeners = append(listeners, p)
		logger.WithField("broker", cfg.MQTT.BrokerURL).Info("Publishing store events to MQTT")
	}

	st := store.New(store.WithListener(listeners))
	ctrl := autosave.New(st,
		autosave.WithTimings(cfg.Autosave),
		autosave.WithLogger(logger.WithField("component", "autosave")),
		autosave.WithObserver(recorder),
	)
	entry := form.NewEntryForm(ctrl, st,
		form.WithLogger(logger.WithField("component", "form")),
		form.WithValidationObserver(recorder),
	)

	authService, err := auth.NewService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}
	if !authService.Enabled() {
		logger.Warn("OPERATOR_PASSWORD_HASH not set, API is unauthenticated")
	}

	router := handlers.NewRouter(handlers.Deps{
		Store:     st,
		Entry:     entry,
		Browser:   browser.New(st, logger.WithField("component", "browser")),
		Auth:      authService,
		Metrics:   recorder.Handler(),
		Logger:    logger.WithField("component", "http"),
		RateLimit: cfg.Server.RateLimit,
	})

	return &app{
		server:    &http.Server{Addr: ":" + cfg.Server.Port, Handler: router},
		ctrl:      ctrl,
		store:     st,
		publisher: publisher,
	}, nil
}

func (a *app) shutdown(ctx context.Context) error {
	a.ctrl.Close()
	err := a.server.Shutdown(ctx)
	if a.publisher != nil {
		a.publisher.Close()
	}
	return err
}

func main() {
	envFile := flag.String("env", "", "path to an env file")
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash of a password for OPERATOR_PASSWORD_HASH and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			log.WithError(err).Fatal("Failed to hash password")
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	logger, err := setupLogger(cfg.Log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure logging")
	}

	a, err := newApp(cfg, logger, events.NewMQTTPublisher)
	if err != nil {
		logger.WithError(err).Fatal("Failed to start service")
	}
	a.ctrl.Mount()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}
