package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/scan-console/internal/archive"
	archiveminio "github.com/pribylovaa/scan-console/internal/archive/minio"
	"github.com/pribylovaa/scan-console/internal/clients"
	"github.com/pribylovaa/scan-console/internal/config"
	"github.com/pribylovaa/scan-console/internal/credentials"
	gwhttp "github.com/pribylovaa/scan-console/internal/http"
	"github.com/pribylovaa/scan-console/internal/metrics"
	"github.com/pribylovaa/scan-console/internal/service"
	"github.com/pribylovaa/scan-console/internal/session"
	"github.com/pribylovaa/scan-console/internal/storage"
	"github.com/pribylovaa/scan-console/internal/storage/file"
	"github.com/pribylovaa/scan-console/internal/storage/memory"
	"github.com/pribylovaa/scan-console/internal/storage/redis"
	"github.com/pribylovaa/scan-console/internal/viewstate"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting console-gateway", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	st, err := openStorage(rootCtx, cfg.Storage)
	if err != nil {
		log.Error("storage_init_failed", slog.String("driver", cfg.Storage.Driver), slog.String("err", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn("storage_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	log.Info("storage_initialized", slog.String("driver", cfg.Storage.Driver))

	creds := credentials.New(st)

	bus := session.NewBus()
	bus.Subscribe(func(_ context.Context, e session.Event) {
		log.Info("session_event", slog.String("event", string(e)))
	})

	m := metrics.New(prometheus.DefaultRegisterer)

	cl, err := clients.New(*cfg, clients.Deps{
		Creds:   creds,
		Events:  bus,
		Log:     log,
		Metrics: m,
	})
	if err != nil {
		log.Error("clients_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("clients_initialized")

	var arch archive.Archive
	if cfg.Archive.Enabled {
		a, err := archiveminio.New(rootCtx, cfg.Archive)
		if err != nil {
			log.Error("archive_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}

		arch = a
		log.Info("archive_initialized", slog.String("bucket", cfg.Archive.Bucket))
	}

	svc := service.New(service.Deps{
		Creds:        creds,
		Events:       bus,
		Auth:         cl.Auth,
		Applications: cl.Applications,
		Issues:       cl.Issues,
		Reports:      cl.Reports,
		Archive:      arch,
		Views:        viewstate.New(st, cfg.Views.MaxBytes),
	})

	backendURL, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil {
		log.Error("backend_url_invalid", slog.String("err", err.Error()))
		os.Exit(1)
	}

	apiHandler := gwhttp.NewRouter(svc, bus, gwhttp.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
		Creds:   creds,
		Backend: backendURL,
		API:     cl.API,
		WS:      cfg.WebSocket,
	})

	var ready int32 // 0 — not ready; 1 — ready

	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsSrv := &http.Server{
		Addr:              cfg.Metrics.Addr(),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics_listen_start", slog.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics_serve_failed", slog.String("err", err.Error()))
		}
	}()

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           apiHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("gateway_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics_shutdown_incomplete", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
}

// openStorage выбирает хранилище учётных данных по драйверу из конфигурации.
func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "redis":
		st, err := redis.New(ctx, cfg.RedisURL, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "file", "":
		st, err := file.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
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
