package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"driftwatch/internal/api"
	"driftwatch/pkg/cache"
	"driftwatch/pkg/config"
	"driftwatch/pkg/feed"
	"driftwatch/pkg/fleet"
	"driftwatch/pkg/logging"
	"driftwatch/pkg/misalign"
	"driftwatch/pkg/predict"
	"driftwatch/pkg/probe"
	"driftwatch/pkg/quality"
	"driftwatch/pkg/request"
	"driftwatch/pkg/segment"
	"driftwatch/pkg/tracker"
	"driftwatch/pkg/version"
	"driftwatch/pkg/weather"
	"driftwatch/pkg/wind"
)

const defaultConfigPath = "configs/driftwatch.yaml"

var (
	initConfig = flag.Bool("init-config", false, "Write a default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
)

func main() {
	flag.Parse()

	// .env is optional; anything it sets feeds the config env overrides
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
	}

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Driftwatch started", "version", version.Version)

	tr := tracker.New()
	if err := tr.Register(prometheus.DefaultRegisterer); err != nil {
		slog.Warn("Metrics not registered", "error", err)
	}

	// Feed and wind keys carry the wall-clock hour, so nothing outlives an hour
	responses := cache.NewMemory(time.Hour)
	rc := request.New(responses, tr, requestConfig(&cfg.Request))
	go purgeLoop(ctx, responses, 10*time.Minute)

	src := feedSource(cfg, rc)
	fleetSvc := fleet.New(src, tr, time.Duration(cfg.Feed.Refresh))
	windClient := wind.NewClient(rc, cfg.Wind.BaseURL, time.Duration(cfg.Wind.Timeout))
	weatherClient := weather.NewClient(rc, cfg.Weather.BaseURL, time.Duration(cfg.Weather.CacheTTL), time.Duration(cfg.Request.Timeout))

	// A local replay must be readable; a remote feed may come up later
	results := probe.Run(ctx, []probe.Probe{
		probe.Feed(src, cfg.Feed.Dir != ""),
		probe.Wind(windClient),
	})
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	go fleetSvc.Start(ctx)

	qa := quality.NewAnalyzer(qualityPolicy(&cfg.Quality))
	predictor := predict.New(windClient, predict.Config{
		StepDelay: time.Duration(cfg.Predict.StepDelay),
		CacheTTL:  time.Duration(cfg.Predict.CacheTTL),
	}, tr)
	analyzer := misalign.New(windClient, misalign.Config{
		SampleSize:       cfg.Misalign.SampleSize,
		SegmentsPerTrack: cfg.Misalign.SegmentsPerTrack,
		BatchSize:        cfg.Misalign.BatchSize,
		BatchDelay:       time.Duration(cfg.Misalign.BatchDelay),
	})

	srv := api.NewServer(cfg.Server.Address, api.Handlers{
		Balloons: api.NewBalloonHandler(fleetSvc, qa, predictor, map[string]segment.Config{
			"map":   segmentConfig(cfg.Segment.Map),
			"globe": segmentConfig(cfg.Segment.Globe),
		}),
		Fleet:   api.NewFleetHandler(fleetSvc, qa, analyzer),
		Weather: api.NewWeatherHandler(weatherClient),
		Feed:    api.NewFeedHandler(src),
		Stats:   api.NewStatsHandler(tr, fleetSvc),
		Metrics: promhttp.Handler(),
	})
	srv.Handler = loggingMiddleware(srv.Handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	return runServerLifecycle(ctx, srv, quit)
}

func feedSource(cfg *config.Config, rc *request.Client) feed.Source {
	if cfg.Feed.Dir != "" {
		slog.Info("Replaying feed from disk", "dir", cfg.Feed.Dir)
		return feed.DirSource{Dir: cfg.Feed.Dir}
	}
	return feed.NewHTTPSource(rc, cfg.Feed.BaseURL)
}

func requestConfig(c *config.RequestConfig) request.ClientConfig {
	providers := make(map[string]request.ProviderConfig, len(c.Providers))
	for name, p := range c.Providers {
		providers[name] = request.ProviderConfig{Workers: p.Workers, Gap: time.Duration(p.Gap)}
	}
	return request.ClientConfig{
		Retries:   c.Retries,
		Timeout:   time.Duration(c.Timeout),
		BaseDelay: time.Duration(c.Backoff.BaseDelay),
		MaxDelay:  time.Duration(c.Backoff.MaxDelay),
		Providers: providers,
	}
}

func qualityPolicy(c *config.QualityConfig) quality.Policy {
	return quality.Policy{
		ExpectedSamples:     c.MinSamples,
		MinAltitudeKm:       c.MinAltitudeKm,
		MaxAltitudeKm:       c.MaxAltitudeKm,
		JumpWarningDeg:      c.JumpWarningDeg,
		JumpErrorDeg:        c.JumpErrorDeg,
		FlatAltitudeRangeKm: c.FlatAltitudeRangeKm,
		FlatMinSamples:      c.FlatMinSamples,
	}
}

func segmentConfig(t config.Thresholds) segment.Config {
	return segment.Config{LonJumpDeg: t.LonJumpDeg, LatJumpDeg: t.LatJumpDeg, MaxHourGap: t.MaxHourGap}
}

func purgeLoop(ctx context.Context, m *cache.Memory, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Purge(); n > 0 {
				slog.Debug("Purged cached responses", "count", n)
			}
		}
	}
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
