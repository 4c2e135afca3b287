package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/articles-service/internal/cache"
	"github.com/pribylovaa/articles-service/internal/config"
	articleshttp "github.com/pribylovaa/articles-service/internal/http"
	"github.com/pribylovaa/articles-service/internal/http/middleware"
	"github.com/pribylovaa/articles-service/internal/search"
	"github.com/pribylovaa/articles-service/internal/service"
	"github.com/pribylovaa/articles-service/internal/storage"
	"github.com/pribylovaa/articles-service/internal/storage/memory"
	asmongo "github.com/pribylovaa/articles-service/internal/storage/mongo"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const viewKeyPrefix = "articles:views"

// backend — хранилище вместе с проверкой готовности и закрытием.
type backend struct {
	storage.Storage
	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting articles-service", "env", cfg.Env, "db", cfg.DB.Driver, "search", cfg.Search.Backend)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	st, err := openStorage(dbCtx, cfg)
	dbCancel()
	if err != nil {
		log.Error("storage_open_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := st.close(context.Background()); cerr != nil {
			log.Warn("storage_close_failed", slog.String("err", cerr.Error()))
		}
	}()
	log.Info("storage_ready", slog.String("driver", cfg.DB.Driver))

	opts := []service.Option{}

	var views cache.ViewGuard
	if cfg.Redis.URL != "" {
		views, err = cache.NewRedisViewGuard(cfg.Redis.URL, viewKeyPrefix, cfg.Redis.ViewTTL)
		if err != nil {
			log.Error("redis_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = views.Close() }()

		opts = append(opts, service.WithViewGuard(views))
		log.Info("view_dedup_enabled", slog.Duration("ttl", cfg.Redis.ViewTTL))
	}

	if cfg.Search.Backend == config.SearchBleve {
		idx, err := search.Open(cfg.Search.IndexPath)
		if err != nil {
			log.Error("search_index_open_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = idx.Close() }()

		opts = append(opts, service.WithSearcher(idx))
	}

	svc := service.New(st, *cfg, opts...)

	if _, err := svc.Reindex(rootCtx); err != nil {
		log.Error("search_reindex_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("service_initialized")

	go func() {
		_ = svc.StartTrendingSweep(rootCtx)
	}()

	// health/metrics — отдельный listener
	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&ready) != 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.ping(ctx); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		// Redis не влияет на готовность: без него просмотры считаются без дедупликации.
		if views != nil {
			if err := views.Ping(ctx); err != nil {
				log.Warn("healthz_redis_unavailable", slog.String("err", err.Error()))
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	metricsAddr := cfg.Metrics.Addr()
	metricsSrv := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics_listen_start", "addr", metricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics_serve_failed", slog.String("err", err.Error()))
		}
	}()

	// API
	handler := articleshttp.NewRouter(svc, middleware.NewAuthenticator(cfg.Auth), articleshttp.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
	})

	apiAddr := cfg.HTTP.Addr()
	apiSrv := &http.Server{
		Addr:              apiAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", slog.String("addr", apiAddr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)
	rootCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
		_ = apiSrv.Close()
	} else {
		log.Info("http_stopped")
	}

	_ = metricsSrv.Shutdown(shutdownCtx)

	log.Info("service_stopped")
}

// openStorage выбирает хранилище по cfg.DB.Driver.
func openStorage(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.DB.Driver {
	case config.DriverMongo:
		m, err := asmongo.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}

		return &backend{Storage: m, ping: m.Ping, close: m.Close}, nil
	case config.DriverMemory:
		noop := func(context.Context) error { return nil }

		return &backend{Storage: memory.New(), ping: noop, close: noop}, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
