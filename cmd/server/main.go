package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/luminadesk/backend/internal/api"
	"github.com/luminadesk/backend/internal/audit"
	"github.com/luminadesk/backend/internal/auth"
	"github.com/luminadesk/backend/internal/automation"
	"github.com/luminadesk/backend/internal/channel"
	"github.com/luminadesk/backend/internal/config"
	"github.com/luminadesk/backend/internal/mailer"
	"github.com/luminadesk/backend/internal/metrics"
	"github.com/luminadesk/backend/internal/objectstore"
	"github.com/luminadesk/backend/internal/router"
	"github.com/luminadesk/backend/internal/statusfeed"
	"github.com/luminadesk/backend/internal/storage"
	"github.com/luminadesk/backend/pkg/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Msg("starting luminadesk automation server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence for rules and channel configs
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	if err := storage.SeedDefaults(ctx, store, automation.DefaultRules(time.Now().UTC()), log.Logger); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default rules")
	}

	// Status feed for admin dashboards
	hub := statusfeed.NewHub(log.Logger)
	go hub.Run()

	// Audit sink: kafka when brokers are configured, logs otherwise
	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaAuditTopic, log.Logger)
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaAuditTopic).Msg("audit events go to kafka")
	} else {
		sink = audit.NewLogSink(log.Logger)
	}

	m := metrics.New()

	// Email dispatch
	dispatcher := mailer.NewDispatcher(mailer.LoadConfig(), hub, m, log.Logger)

	// Channel health monitoring
	monitor := channel.NewMonitor(store, hub, cfg.ChannelTestTimeout, m, log.Logger)

	// Rule engine and ticket router
	notifier := router.NewManagementNotifier(dispatcher, sink, cfg.ManagementEmail, cfg.EmailFrom, log.Logger)
	ruleSource := storage.NewRuleSource(store, log.Logger)
	engine := automation.NewEngine(ruleSource, notifier, m, log.Logger)
	ticketRouter := router.New(engine, store, dispatcher, nil, sink, cfg.EmailFrom, log.Logger)

	// Object storage
	storeCfg := objectstore.LoadConfig()
	provider, err := objectstore.New(ctx, storeCfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Str("backend", string(storeCfg.Backend)).Msg("failed to initialize object storage")
	}

	// Handlers
	ticketHandler := api.NewTicketHandler(ticketRouter, log.Logger)
	ruleHandler := api.NewRuleHandler(store, log.Logger)
	channelHandler := api.NewChannelHandler(store, monitor, sink, log.Logger)
	emailHandler := api.NewEmailHandler(dispatcher, cfg.EmailFrom, log.Logger)
	objectHandler := api.NewObjectHandler(provider, m, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/objects/*", objectHandler.Download)

	// Internal routes (no auth - for internal services like the CRUD layer)
	r.Route("/internal", func(r chi.Router) {
		r.Post("/tickets/process", ticketHandler.ProcessTicket)
		if local, ok := provider.(*objectstore.LocalProvider); ok {
			uploadHandler := api.NewLocalUploadHandler(local, log.Logger)
			r.Put("/objects/upload", uploadHandler.Upload)
		}
	})

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/metrics", m.Handler)
		r.Get("/ws/status", statusfeed.ServeWS(hub, log.Logger))

		r.Route("/api", func(r chi.Router) {
			r.Get("/rules", ruleHandler.ListRules)
			r.Get("/channels", channelHandler.ListChannels)
			r.Get("/channels/{id}/health", channelHandler.ChannelHealth)
			r.Post("/email/send", emailHandler.SendEmail)
			r.Post("/objects/upload-url", objectHandler.GetUploadURL)

			// Mutating admin routes
			r.Group(func(r chi.Router) {
				r.Use(api.RequireAdmin)
				r.Post("/rules", ruleHandler.CreateRule)
				r.Patch("/rules/{id}/active", ruleHandler.SetRuleActive)
				r.Put("/channels", channelHandler.SaveChannel)
				r.Post("/channels/{id}/test", channelHandler.TestChannel)
			})
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"luminadesk-automation"}`)
}
