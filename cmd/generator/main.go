package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"

	"bookimg/internal/covers"
	"bookimg/internal/generate"
	"bookimg/internal/llm"
	"bookimg/internal/logger"
	"bookimg/internal/metadata"
	"bookimg/internal/storage/books"
	"bookimg/internal/storage/fails"
	"bookimg/internal/svgfix"
	"bookimg/internal/types"
)

func getEnvOrDefault(key, default_ string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return default_
}

var (
	logLevel     = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	logFormat    = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text"))
	dbConnStr    = os.Getenv("DATABASE_URL")
	opdsFeed     = os.Getenv("OPDS_FEED")
	outputDir    = getEnvOrDefault("OUTPUT_DIR", "images")
	openAIKey    = os.Getenv("OPENAI_API_KEY")
	anthropicKey = os.Getenv("ANTHROPIC_API_KEY")
)

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	modelsArg := flag.String("models", "gpt-5", "comma-separated models to generate with, available: "+
		strings.Join(llm.Models(), ", "))
	parallel := flag.Int("n", 1, "number of parallel generation runs")
	direct := flag.Bool("d", false, "skip the source cover image, prompt from metadata alone")
	outDir := flag.String("o", "", "output directory, overrides OUTPUT_DIR")
	flag.Parse()

	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(logLevel))
	if err != nil {
		lvl = slog.LevelInfo
	}
	logger.SetupSLog(lvl, logFormat, path.Dir(path.Dir(path.Dir(thisFile))), struct{}{})

	if err != nil {
		slog.Error("Invalid log level specified in LOG_LEVEL, one of debug, info, warn or error expected")
		os.Exit(1)
	}

	isbn := strings.TrimSpace(flag.Arg(0))
	if isbn == "" {
		slog.Error("Usage: generator [flags] <isbn>")
		os.Exit(1)
	}

	out := outputDir
	if *outDir != "" {
		out = *outDir
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		slog.Error("Failed to create output directory " + out + ": " + err.Error())
		os.Exit(1)
	}

	models := buildModels(*modelsArg)

	client := &http.Client{Timeout: 60 * time.Second}

	googleBooks := metadata.NewGoogleBooks(client)
	goodreads := metadata.NewGoodreads(client)

	metaProviders := []metadata.Provider{googleBooks, goodreads}
	coverSources := []covers.Provider{
		covers.FromSource(googleBooks, client),
		covers.FromSource(goodreads, client),
	}

	if opdsFeed != "" {
		feed, err := url.Parse(opdsFeed)
		if err != nil {
			slog.Error("Invalid URL in OPDS_FEED: " + err.Error())
			os.Exit(1)
		}

		opds := metadata.NewOPDS(client, feed)
		metaProviders = append(metaProviders, opds)
		coverSources = append(coverSources, covers.FromSource(opds, client))
	}

	br, fr := buildRepositories()

	ctx := context.Background()

	book := lookupBook(ctx, isbn, br, fr, metadata.NewService(slog.Default(), metaProviders...))

	generative := make([]covers.Provider, 0, len(models))
	for _, m := range models {
		generative = append(generative, covers.NewGenerated(m, client, slog.Default()))
	}

	coverPath := ""
	if !*direct {
		coverPath = covers.NewService(slog.Default(), coverSources, generative).Download(ctx, book)
	}

	g := &generate.Generator{
		Fixer:     svgfix.NewFixer(slog.Default()),
		Logger:    slog.Default(),
		OutputDir: out,
		Direct:    *direct,
	}

	files := g.GenerateAll(ctx, book, coverPath, models, *parallel)
	if len(files) == 0 {
		slog.Error("No images were generated")
		os.Exit(1)
	}

	slog.Info("Generated " + strconv.Itoa(len(files)) + " files in " + out)
}

func buildModels(arg string) []llm.Provider {
	cfg := llm.Config{
		OpenAIKey:    openAIKey,
		AnthropicKey: anthropicKey,
	}

	var models []llm.Provider
	for _, name := range strings.Split(arg, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		m, err := llm.Create(name, cfg)
		if err != nil {
			slog.Error(err.Error())
			os.Exit(1)
		}

		models = append(models, m)
	}

	if len(models) == 0 {
		slog.Error("At least one model must be specified via -models")
		os.Exit(1)
	}

	return models
}

// buildRepositories returns nil repositories when DATABASE_URL is not set;
// the pipeline then runs without the cache and fail journal.
func buildRepositories() (books.Repository, fails.Repository) {
	if dbConnStr == "" {
		slog.Info("DATABASE_URL is not set, running without metadata cache")
		return nil, nil
	}

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

	return books.NewPGXRepository(pg, slog.Default()), fails.NewPGXRepository(pg, slog.Default())
}

func lookupBook(ctx context.Context, isbn string, br books.Repository, fr fails.Repository,
	ms *metadata.Service) *types.Book {

	if br != nil {
		book, err := br.GetByISBN(ctx, isbn)
		if err != nil {
			slog.Error("Failed to read metadata cache: " + err.Error())
			os.Exit(1)
		}
		if book != nil {
			slog.Info("Using cached metadata for " + isbn)
			return book
		}
	}

	startTime := time.Now()

	book := ms.Lookup(ctx, isbn)
	if book == nil {
		if fr != nil {
			if err := fr.Save(ctx, &startTime, isbn, errors.New("all providers exhausted")); err != nil {
				slog.Error("Failed to journal lookup failure: " + err.Error())
			}
		}

		slog.Error("No metadata found for ISBN " + isbn + " in any source")
		os.Exit(1)
	}

	if br != nil {
		if err := br.Save(ctx, book); err != nil {
			slog.Error("Failed to cache metadata for " + isbn + ": " + err.Error())
		}
	}
	if fr != nil {
		if err := fr.DeleteByIsbn(ctx, isbn); err != nil {
			slog.Error("Failed to clear fail journal for " + isbn + ": " + err.Error())
		}
	}

	return book
}
