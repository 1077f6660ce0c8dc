package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"resume_filter/internal/analyzer"
	"resume_filter/internal/backend"
	"resume_filter/internal/cache"
	"resume_filter/internal/config"
	"resume_filter/internal/logging"
	"resume_filter/internal/metrics"
	"resume_filter/internal/model"
	"resume_filter/internal/scorer"
	"resume_filter/internal/store"
	"resume_filter/internal/workspace"
)

type app struct {
	cfg      config.Config
	logger   logging.Logger
	metrics  *metrics.Metrics
	provider *model.Provider
	analyzer *analyzer.Analyzer
	store    *store.Store
	layout   *workspace.Layout
	closers  []func() error
}

func setup(ctx context.Context, opts options, stderr io.Writer) (*app, error) {
	cfg, layout, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, layout: layout}
	slogger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	loggers := []logging.Logger{logging.NewSlog(slogger)}
	if layout != nil {
		archive, err := logging.NewArchive(layout.Logs)
		if err != nil {
			slogger.Warn("session log unavailable", "err", err)
		} else {
			loggers = append(loggers, archive)
			slogger.Info("session log", "path", archive.Path())
		}
	}
	a.logger = logging.Multi(loggers...)
	a.metrics = metrics.New()

	if cfg.MetricsAddr != "" {
		a.serveMetrics(cfg.MetricsAddr)
	}

	scoreCache := a.buildCache(ctx)

	if cfg.DBPath != "" {
		st, err := store.OpenStore(cfg.DBPath)
		if err != nil {
			a.close()
			return nil, err
		}
		a.store = st
		a.closers = append(a.closers, st.Close)
	}

	loader := backend.NewRemoteLoader(cfg.Backend.URL, cfg.BackendTimeout())
	a.provider = model.NewProvider(loader,
		model.WithDevice(cfg.Device),
		model.WithLogger(a.logger),
		model.WithLoadHook(a.metrics.ObserveModelLoad),
	)
	a.closers = append(a.closers, a.provider.Close)

	sc := scorer.New(
		scorer.WithCache(scoreCache),
		scorer.WithMetrics(a.metrics),
		scorer.WithLogger(a.logger),
		scorer.WithTimeout(cfg.SentenceTimeout()),
	)
	an, err := analyzer.New(ctx, a.provider, cfg.Analyzer(),
		analyzer.WithScorer(sc),
		analyzer.WithLogger(a.logger),
		analyzer.WithMetrics(a.metrics),
		analyzer.WithProgress(a.progress),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("model unavailable: %w", err)
	}
	a.analyzer = an
	return a, nil
}

// loadConfig layers defaults, the settings file, PPLX_* variables and then
// explicitly set flags. Without -config the workspace settings are used.
func loadConfig(opts options) (config.Config, *workspace.Layout, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, nil, err
	}
	cfg.ApplyEnv()
	applyFlags(&cfg, opts)

	var layout *workspace.Layout
	if cfg.Workspace != "" {
		l, err := workspace.EnsureAt(cfg.Workspace)
		if err != nil {
			return cfg, nil, err
		}
		layout = &l
		if opts.configPath == "" {
			if cfg, err = config.Load(l.Settings); err != nil {
				return cfg, nil, err
			}
			cfg.ApplyEnv()
			applyFlags(&cfg, opts)
			cfg.Workspace = l.Root
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, layout, nil
}

func applyFlags(cfg *config.Config, o options) {
	if o.set["model"] {
		cfg.Model = o.model
	}
	if o.set["max-length"] {
		cfg.MaxLength = o.maxLength
	}
	if o.set["threshold"] {
		cfg.Threshold = o.threshold
	}
	if o.set["backend"] {
		cfg.Backend.URL = o.backendURL
	}
	if o.set["db"] {
		cfg.DBPath = o.dbPath
	}
	if o.set["workspace"] {
		cfg.Workspace = o.workspace
	}
	if o.set["metrics-addr"] {
		cfg.MetricsAddr = o.metricsAddr
	}
	if o.set["workers"] {
		cfg.Workers = o.workers
	}
}

func (a *app) buildCache(ctx context.Context) cache.Cache {
	if !a.cfg.Cache.Enabled {
		return nil
	}
	addr := a.cfg.Cache.RedisAddr
	if addr == "" {
		return cache.NewMemory(a.cfg.Cache.Size, a.cfg.CacheTTL())
	}
	r, err := cache.DialRedis(ctx, addr, a.cfg.CacheTTL())
	if err != nil {
		logging.Log(a.logger, "WARN", "CACHE", "redis unavailable, falling back to memory", err.Error())
		return cache.NewMemory(a.cfg.Cache.Size, a.cfg.CacheTTL())
	}
	a.closers = append(a.closers, r.Close)
	logging.Log(a.logger, "INFO", "CACHE", "using shared score cache", addr)
	if !a.cfg.Cache.Bloom {
		return r
	}
	return seedBloom(ctx, a.logger, r, uint(max(a.cfg.Cache.Size, 1)))
}

// seedBloom fronts the shared tier with a bloom filter holding every key
// already stored there. If the scan fails the tier is used without one.
func seedBloom(ctx context.Context, logger logging.Logger, r *cache.Redis, expected uint) cache.Cache {
	b := cache.NewBloom(r, expected, 0.01)
	seeded := 0
	if err := r.ScanKeys(ctx, func(key string) {
		b.Add(key)
		seeded++
	}); err != nil {
		logging.Log(logger, "WARN", "CACHE", "bloom seeding failed, querying redis directly", err.Error())
		return r
	}
	logging.Log(logger, "INFO", "CACHE", "bloom filter seeded", fmt.Sprintf("keys=%d", seeded))
	return b
}

func (a *app) serveMetrics(addr string) {
	r := mux.NewRouter()
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Log(a.logger, "ERROR", "METRICS", "metrics server error", err.Error())
		}
	}()
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

func (a *app) progress(done, total int, stage string) {
	logging.Log(a.logger, "DEBUG", "PROGRESS", stage, fmt.Sprintf("%d/%d", done, total))
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.Log(a.logger, "WARN", "SHUTDOWN", "close failed", err.Error())
		}
	}
	a.closers = nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "pplx: encode output: %v\n", err)
		return 1
	}
	return 0
}
