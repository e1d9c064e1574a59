package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"conversation-validator-go/internal/config"
	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/metrics"
	"conversation-validator-go/internal/pipeline"
	"conversation-validator-go/internal/registry"
	"conversation-validator-go/internal/server"
	"conversation-validator-go/internal/transcription"
)

func main() {
	cfg := config.Load() // loads .env

	log := logger.New()
	log.WithField("service", "conversation-validator-go").Info("starting service")

	log.WithField("registry_path", cfg.RegistryPath).Info("loading analysis registry")
	reg, err := registry.LoadOrDefault(cfg.RegistryPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load analysis registry")
	}
	log.WithField("information_types", len(reg.Rules)).Info("analysis registry loaded")

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	analyzer := pipeline.NewAnalyzer(cfg, reg, m)

	srv := server.New(analyzer, prometheus.DefaultGatherer, m)
	srv.SetConcurrency(cfg.Concurrency)

	driver, err := transcription.New(cfg)
	if err != nil {
		log.WithError(err).Warn("transcript driver unavailable, /run disabled")
	} else {
		srv.EnableRuns(pipeline.FromConfig(cfg, driver, analyzer, m), cfg.TemplatesDir)
		log.WithField("driver", driver.Name()).WithField("templates_dir", cfg.TemplatesDir).Info("/run enabled")
	}

	httpSrv := server.NewHTTPServer(cfg.Port, srv)
	log.WithField("addr", httpSrv.Addr).Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
