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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ocragent/ocr-agent/internal/docprocessing/events"
	"github.com/ocragent/ocr-agent/internal/docprocessing/handler"
	"github.com/ocragent/ocr-agent/internal/docprocessing/metrics"
	"github.com/ocragent/ocr-agent/internal/docprocessing/ocr"
	"github.com/ocragent/ocr-agent/internal/docprocessing/processor"
	"github.com/ocragent/ocr-agent/internal/docprocessing/service"
	"github.com/ocragent/ocr-agent/internal/docprocessing/storage"
	"github.com/ocragent/ocr-agent/pkg/config"
	"github.com/ocragent/ocr-agent/pkg/httputil"
	"github.com/ocragent/ocr-agent/pkg/i18n"
	"github.com/ocragent/ocr-agent/pkg/logger"
	"github.com/ocragent/ocr-agent/pkg/messaging"
)

const serviceName = "ocr-service"

func main() {
	// Fails fast in production if required config is missing
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Str("version", cfg.App.Version).Msg("starting OCR service")

	tesseract := ocr.NewTesseract(ocr.TesseractConfig{
		Enabled: cfg.Tesseract.Enabled,
		Binary:  cfg.Tesseract.Binary,
		Lang:    cfg.Tesseract.Lang,
		PSM:     cfg.Tesseract.PSM,
	}, ocr.NewExecRunner(log))
	vision := ocr.NewGoogleVision(ocr.VisionConfig{
		Enabled:  cfg.Vision.Enabled,
		APIKey:   cfg.Vision.APIKey,
		Endpoint: cfg.Vision.Endpoint,
		Timeout:  cfg.Vision.Timeout,
	})

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.Enabled {
		rmq, err := messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		amqpPublisher, err := events.NewAMQPPublisher(rmq, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		publisher = amqpPublisher
	}

	var hasher *events.SubjectHasher
	if cfg.Audit.HashKey != "" {
		hasher, err = events.NewSubjectHasher([]byte(cfg.Audit.HashKey))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid audit hash key")
		}
	}

	jobs := storage.NewTempStorage(cfg.OCR.CompareJobTTL)
	defer jobs.Close()

	svc := service.NewService(service.Dependencies{
		Registry:  processor.DefaultRegistry(),
		Cheap:     tesseract,
		Costed:    vision,
		Storage:   jobs,
		Publisher: publisher,
		Hasher:    hasher,
		Metrics:   metrics.New(),
		Logger:    log,
	}, service.Config{
		MaxConcurrent:  cfg.OCR.MaxConcurrent,
		AttemptTimeout: cfg.OCR.AttemptTimeout,
	})

	engines := svc.Health(context.Background())
	log.Info().
		Bool("tesseract", engines["tesseract"]).
		Bool("google_vision", engines["google_vision"]).
		Msg("ocr engines")

	h := handler.NewHandler(svc, cfg.OCR.MaxFileSize, cfg.App.Version, log)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Accept-Language"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(i18n.Middleware)

	r.Get("/", h.Info)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(httputil.BearerAuth(cfg.Auth.Secret, cfg.Auth.Issuer, log))
		}
		h.Mount(r)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// let audit events and compare jobs drain
	svc.Wait()

	log.Info().Msg("server stopped")
}
