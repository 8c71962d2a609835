package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"runtime"
	"strings"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"

	"bookimg/internal/logger"
	"bookimg/internal/metadata"
	"bookimg/internal/response"
	"bookimg/internal/server"
	"bookimg/internal/storage/books"
	"bookimg/internal/storage/fails"
)

func getEnvOrDefault(key, default_ string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return default_
}

func getBoolEnv(key string) bool {
	if val := strings.ToLower(os.Getenv(key)); val == "yes" || val == "on" || val == "true" {
		return true
	}

	return false
}

var (
	logLevel  = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "debug"))
	logFormat = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text"))
	dbConnStr = os.Getenv("DATABASE_URL")
	opdsFeed  = os.Getenv("OPDS_FEED")
	outputDir = getEnvOrDefault("OUTPUT_DIR", "images")
	bindAddr  = getEnvOrDefault("BIND_ADDR", ":8080")
	debugMode = getBoolEnv("DEBUG_MODE")
)

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(logLevel))
	if err != nil {
		lvl = slog.LevelDebug
	}
	logger.SetupSLog(lvl, logFormat, path.Dir(path.Dir(path.Dir(thisFile))), middleware.RequestIDKey)

	if err != nil {
		slog.Error("Invalid log level specified in LOG_LEVEL, one of debug, info, warn or error expected")
		os.Exit(1)
	}

	var br books.Repository
	var fr fails.Repository

	if dbConnStr != "" {
		cfg, err := pgxpool.ParseConfig(dbConnStr)
		if err != nil {
			slog.Error("Failed to parse DATABASE_URL: " + err.Error())
			os.Exit(1)
		}

		cfg.ConnConfig.Tracer = logger.NewPGXTracer()

		pg, err := pgxpool.NewWithConfig(context.Background(), cfg)
		if err != nil {
			slog.Error("failed to create postgres pool: " + err.Error())
			os.Exit(1)
		}

		br = books.NewPGXRepository(pg, slog.Default())
		fr = fails.NewPGXRepository(pg, slog.Default())
	} else {
		slog.Info("DATABASE_URL is not set, serving without metadata cache")
	}

	client := &http.Client{Timeout: 60 * time.Second}

	providers := []metadata.Provider{
		metadata.NewGoogleBooks(client),
		metadata.NewGoodreads(client),
	}

	if opdsFeed != "" {
		feed, err := url.Parse(opdsFeed)
		if err != nil {
			slog.Error("Invalid URL in OPDS_FEED: " + err.Error())
			os.Exit(1)
		}

		providers = append(providers, metadata.NewOPDS(client, feed))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Mount("/api", server.Handler(br, fr,
		metadata.NewService(slog.Default(), providers...),
		outputDir,
		&response.Responder{DebugMode: debugMode},
	))

	slog.Error("aborting: " + http.ListenAndServe(bindAddr, r).Error())
	os.Exit(1)
}
