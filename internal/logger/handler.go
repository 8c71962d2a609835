package logger

import (
	"context"
	"go/build"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

// SetupSLog installs the default logger: text or json per format, with
// source file paths stripped of the module root (rootPath) or GOPATH, and
// the request id from the context attached when present.
func SetupSLog(lvl slog.Level, format, rootPath string, requestIdKey any) {
	ho := slog.HandlerOptions{
		Level: lvl,
	}

	var base slog.Handler
	switch format {
	case "json":
		base = slog.NewJSONHandler(os.Stderr, &ho)
	case "text", "":
		base = slog.NewTextHandler(os.Stderr, &ho)
	default:
		slog.Error("LOG_FORMAT must be json or text")
		os.Exit(1)
	}

	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		gopath = build.Default.GOPATH
	}

	slog.SetDefault(slog.New(&handler{
		baseHandler:  base,
		rootPath:     strings.TrimSuffix(rootPath, "/") + "/",
		goPath:       strings.TrimSuffix(gopath, "/") + "/",
		requestIdKey: requestIdKey,
	}))
}

type handler struct {
	baseHandler  slog.Handler
	rootPath     string
	goPath       string
	requestIdKey any
}

func (e *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return e.baseHandler.Enabled(ctx, level)
}

func (e *handler) Handle(ctx context.Context, record slog.Record) error {
	record = record.Clone()

	fs := runtime.CallersFrames([]uintptr{record.PC})
	f, _ := fs.Next()

	file := f.File
	if strings.HasPrefix(file, e.rootPath) {
		file = file[len(e.rootPath):]
	} else if strings.HasPrefix(file, e.goPath) {
		file = file[len(e.goPath):]
	}

	record.AddAttrs(slog.Any(slog.SourceKey, &slog.Source{
		Function: f.Function,
		File:     file,
		Line:     f.Line,
	}))

	if requestId := ctx.Value(e.requestIdKey); requestId != nil {
		record.AddAttrs(slog.String("request_id", requestId.(string)))
	}

	return e.baseHandler.Handle(ctx, record)
}

func (e *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return e.derive(e.baseHandler.WithAttrs(attrs))
}

func (e *handler) WithGroup(name string) slog.Handler {
	return e.derive(e.baseHandler.WithGroup(name))
}

func (e *handler) derive(base slog.Handler) slog.Handler {
	return &handler{
		baseHandler:  base,
		rootPath:     e.rootPath,
		goPath:       e.goPath,
		requestIdKey: e.requestIdKey,
	}
}
