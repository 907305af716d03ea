package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/Preet416/remote-work-suite/internal/config"
	"github.com/Preet416/remote-work-suite/internal/events"
	"github.com/Preet416/remote-work-suite/internal/handler"
	"github.com/Preet416/remote-work-suite/internal/hub"
	"github.com/Preet416/remote-work-suite/internal/room"
	"github.com/Preet416/remote-work-suite/internal/service"
	"github.com/Preet416/remote-work-suite/pkg/auth"
	pkglog "github.com/Preet416/remote-work-suite/pkg/log"
	"github.com/Preet416/remote-work-suite/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	cfg.Log.ServiceName = "meet-server"
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting meet-server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional room lifecycle event publisher for the rest of the suite.
	var publisher events.Publisher
	if cfg.Events.Enabled {
		p, err := events.NewRedisPublisher(ctx, cfg.Events.RedisAddress, cfg.Events.RedisPassword, cfg.Events.RedisDB)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to connect to redis, lifecycle events disabled")
		} else {
			publisher = p
			defer p.Close()
			logger.Info().Str("address", cfg.Events.RedisAddress).Msg("connected to redis event bus")
		}
	}

	// Optional identity-token reading.
	var verifier *auth.Verifier
	if cfg.Auth.HMACSecret != "" {
		verifier = auth.NewVerifier(cfg.Auth.HMACSecret)
		logger.Info().Msg("identity tokens will be signature-checked")
	} else {
		verifier = auth.NewVerifier("")
	}

	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	registry := room.NewRegistry()
	meetingSvc := service.NewMeetingService(registry, wsHub, publisher, verifier)
	wsHandler := handler.NewWSHandler(wsHub, meetingSvc)

	router := mux.NewRouter()
	router.Use(pkglog.HTTPMiddleware(logger))
	wsHandler.RegisterRoutes(router)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     corsMiddleware.Handler(router),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("meet-server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down meet-server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}

	logger.Info().Msg("meet-server stopped")
}
