package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"siemlite/internal/alert"
	"siemlite/internal/config"
	"siemlite/internal/event"
	"siemlite/internal/geo"
	"siemlite/internal/ingest"
	"siemlite/internal/server"
	"siemlite/internal/threat"
)

func main() {
	cfg := config.Load()

	geodb := geo.Open(cfg.GeoIPDB)
	defer geodb.Close()
	if geodb.Available() {
		slog.Info("geoip database loaded", "path", cfg.GeoIPDB)
	}

	index, err := threat.LoadFile(cfg.ThreatFeedFile)
	if err != nil {
		slog.Warn("threat feed unavailable, nothing will be classified", "path", cfg.ThreatFeedFile, "err", err)
	} else {
		slog.Info("threat feed loaded", "path", cfg.ThreatFeedFile, "count", index.Len())
	}

	mailer := &alert.Mailer{
		Host:      cfg.SMTPServer,
		Port:      cfg.SMTPPort,
		User:      cfg.SMTPUser,
		Password:  cfg.SMTPPass,
		Recipient: cfg.AlertRecipient,
	}
	dispatcher := alert.New(mailer, alert.Options{
		Enabled:  cfg.SendEmail,
		Cooldown: cfg.AlertCooldown,
	})

	pipeline := ingest.NewPipeline(geo.NewCachedResolver(geodb), index, event.NewStore(), dispatcher)

	srv := server.New(pipeline)
	srv.StartMetrics(cfg.MetricsAddr)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	// Stop accepting events before draining pending alerts.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "err", err)
	}
	dispatcher.Close()
}
