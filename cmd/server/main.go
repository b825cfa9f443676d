package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/balance"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/rediscache"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(os.Stdout, cfg.LogLevel)

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Storage.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Storage.DBPath)

	var users storage.UserDirectory = store
	ledgerOpts := []service.LedgerOption{service.WithDefaultCurrency(cfg.Balance.Currency)}
	if cfg.Redis.URL != "" {
		cache, err := newUserCache(cfg.Redis, store)
		if err != nil {
			slog.Error("Failed to initialize user cache", "error", err)
			os.Exit(1)
		}
		users = cache
		ledgerOpts = append(ledgerOpts, service.WithProfileCache(cache))
		slog.Info("User cache enabled", "ttl", cfg.Redis.UserTTL)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	engine := balance.NewEngine(store, store,
		balance.WithSettlements(store),
		balance.WithUserDirectory(users),
		balance.WithMetrics(m),
		balance.WithConcurrency(cfg.Balance.FetchConcurrency),
		balance.WithCurrency(cfg.Balance.Currency),
	)

	interceptors := middleware.Interceptors(auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenTTL))

	mux := http.NewServeMux()

	// Register Connect services
	balancePath, balanceHandler := service.NewBalanceServiceHandler(
		service.NewBalanceService(balance.NewRefresher(engine, balance.WithRefreshMetrics(m))), interceptors)
	mux.Handle(balancePath, balanceHandler)

	ledgerPath, ledgerHandler := service.NewLedgerServiceHandler(
		service.NewLedgerService(store, ledgerOpts...), interceptors)
	mux.Handle(ledgerPath, ledgerHandler)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := server.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// newUserCache connects to Redis and wraps the directory with a read-through cache.
func newUserCache(cfg config.RedisConfig, next storage.UserDirectory) (*rediscache.Directory, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// The cache falls back to the store per request; keep serving.
		slog.Warn("Redis not reachable at startup", "error", err)
	}
	return rediscache.New(client, next, cfg.UserTTL), nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
