package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	filmctrl "github.com/abhishek622/filmrate/film/controller/film"
	filmhandler "github.com/abhishek622/filmrate/film/handler/http"
	filmmemory "github.com/abhishek622/filmrate/film/repository/memory"
	filmsql "github.com/abhishek622/filmrate/film/repository/sql"
	"github.com/abhishek622/filmrate/internal/middleware"
	"github.com/abhishek622/filmrate/pkg/discovery"
	"github.com/abhishek622/filmrate/pkg/discovery/consul"
	"github.com/abhishek622/filmrate/pkg/tracing"
	userctrl "github.com/abhishek622/filmrate/user/controller/user"
	userhandler "github.com/abhishek622/filmrate/user/handler/http"
	usermemory "github.com/abhishek622/filmrate/user/repository/memory"
	usersql "github.com/abhishek622/filmrate/user/repository/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally/v4"
	promreporter "github.com/uber-go/tally/v4/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

const serviceName = "filmrate"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found")
	}

	f, err := os.Open("configs/default.yaml")
	if err != nil {
		logger.Fatal("Failed to open configuration", zap.Error(err))
	}
	var cfg config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		logger.Fatal("Failed to parse configuration", zap.Error(err))
	}
	f.Close()
	if dsn := os.Getenv("FILMRATE_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
	}

	port := cfg.API.Port
	logger.Info("Starting the filmrate service",
		zap.Int("port", port), zap.String("storage", cfg.Storage.Engine))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userRepo, filmRepo, cleanup, err := newRepositories(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to init storage", zap.Error(err))
	}
	defer cleanup()

	userController := userctrl.New(userRepo, logger)
	filmController := filmctrl.New(filmRepo, userRepo, logger)

	reporter := promreporter.NewReporter(promreporter.Options{})
	scope, scopeCloser := tally.NewRootScope(tally.ScopeOptions{
		Prefix:         serviceName,
		Tags:           map[string]string{},
		CachedReporter: reporter,
		Separator:      promreporter.DefaultSeparator,
	}, time.Second)
	defer scopeCloser.Close()

	if cfg.Jaeger.Host != "" {
		tracer, closer, err := tracing.NewTracer(serviceName, cfg.Jaeger.Host, cfg.Jaeger.Port, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Jaeger tracer", zap.Error(err))
		}
		defer closer.Close()
		opentracing.SetGlobalTracer(tracer)
		logger.Info("Jaeger tracer initialized", zap.String("service", serviceName))
	}

	if addr := cfg.ServiceDiscovery.Consul.Address; addr != "" {
		registry, err := consul.NewRegistry(addr)
		if err != nil {
			logger.Fatal("Failed to init service registry", zap.Error(err))
		}
		instanceID := discovery.GenerateInstanceID(serviceName)
		if err := registry.Register(ctx, instanceID, serviceName, fmt.Sprintf("localhost:%d", port)); err != nil {
			logger.Fatal("Failed to register service", zap.Error(err))
		}
		defer registry.Deregister(ctx, instanceID, serviceName)
		go func() {
			for {
				if err := registry.ReportHealthyState(instanceID, serviceName); err != nil {
					logger.Warn("Failed to report healthy state", zap.Error(err))
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(1 * time.Second):
				}
			}
		}()
	}

	mux := http.NewServeMux()
	userhandler.New(userController, logger).Register(mux)
	filmhandler.New(filmController, logger).Register(mux)
	mux.Handle("GET /metrics", reporter.HTTPHandler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	limit, burst := cfg.RateLimit.Limit, cfg.RateLimit.Burst
	if limit <= 0 {
		limit = 1000
	}
	if burst <= 0 {
		burst = 1000
	}

	var handler http.Handler = mux
	handler = middleware.RateLimit(rate.NewLimiter(rate.Limit(limit), burst))(handler)
	handler = middleware.Metrics(scope)(handler)
	handler = middleware.Logging(logger)(handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := <-sigChan
		logger.Info("Received signal, attempting graceful shutdown", zap.Any("signal", s))
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down the HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Failed to serve HTTP", zap.Error(err))
	}
	wg.Wait()
	logger.Info("Gracefully stopped the HTTP server")
}

func newRepositories(cfg storageConfig) (userctrl.Repository, filmctrl.Repository, func(), error) {
	switch cfg.Engine {
	case "", "memory":
		return usermemory.New(), filmmemory.New(), func() {}, nil
	case "sqlite", "mysql":
		driver := "mysql"
		if cfg.Engine == "sqlite" {
			driver = "sqlite3"
		}
		db, err := sql.Open(driver, cfg.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open %s storage: %w", cfg.Engine, err)
		}
		userRepo, err := usersql.New(db, driver)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		filmRepo, err := filmsql.New(db, driver)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return userRepo, filmRepo, func() { db.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage engine %q", cfg.Engine)
	}
}
