package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/esusuhq/esusu/internal/api"
	"github.com/esusuhq/esusu/internal/auth"
	"github.com/esusuhq/esusu/internal/engine"
	"github.com/esusuhq/esusu/internal/escrow"
	"github.com/esusuhq/esusu/internal/middleware"
	"github.com/esusuhq/esusu/internal/oracle"
	"github.com/esusuhq/esusu/internal/registry"
	"github.com/esusuhq/esusu/internal/reserve"
	"github.com/esusuhq/esusu/internal/storage/sqlite"
	"github.com/esusuhq/esusu/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		slog.Warn("ignoring non-numeric env value", "key", key, "value", value)
	}
	return fallback
}

func main() {
	logging.Setup()

	port := getEnvInt("PORT", 8080)
	dbPath := getEnv("DB_PATH", "./data/esusu.db")
	jwtSecret := getEnv("JWT_SECRET", "")
	oracleToken := getEnv("ORACLE_TOKEN", "")
	oracleSeed := getEnvInt("ORACLE_SEED", time.Now().UnixNano())
	reserveRateBps := getEnvInt("RESERVE_RATE_BPS", 250)
	oracleDelayMs := getEnvInt("ORACLE_DELAY_MS", 500)

	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	if oracleToken == "" {
		slog.Error("ORACLE_TOKEN is required")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", dbPath)

	// Simulated collaborators stand in for the external yield reserve and
	// randomness oracle until real integrations land.
	res := reserve.NewSim(reserveRateBps)
	orc := oracle.NewSim(getEnv("ORACLE_ID", "oracle-sim"), oracleSeed)

	ledger := escrow.New(res, store)
	reg := registry.New(store)
	eng := engine.New(ledger, reg, orc, orc.ID(), store)

	// The sim delivers fulfillments in-process straight to the engine, the
	// same entry point the HTTP callback route uses.
	orc.SetDelivery(eng.HandleRandomnessFulfilled, time.Duration(oracleDelayMs)*time.Millisecond)

	jwtManager := auth.NewJWTManager(jwtSecret, 24*time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	handler := &api.Handler{
		Engine:        eng,
		Authenticator: authenticator,
		JWT:           jwtManager,
		Store:         store,
		OracleToken:   oracleToken,
		OracleID:      orc.ID(),
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)

	handler.RegisterRoutes(r)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf(":%d", port)
	slog.Info("server starting", "address", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
