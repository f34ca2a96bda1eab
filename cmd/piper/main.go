// Command piper runs the online feature-transformation engine's HTTP
// surface: POST /process, GET /metrics, GET /healthz.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/httpapi"
	"github.com/feathr-ai/feathr-online/internal/recovery"
	"github.com/feathr-ai/feathr-online/lookup"
	"github.com/feathr-ai/feathr-online/metrics"
	"github.com/feathr-ai/feathr-online/pipeline"
)

func main() {
	cfg := NewConfig()

	rootCmd := &cobra.Command{
		Use:   "piper",
		Short: "Online feature-transformation engine",
		Long: `piper parses a pipeline DSL script and a lookup-source definition file,
then serves POST /process, GET /metrics, and GET /healthz over HTTP.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.LoadYAML(cmd.Flags()); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cfg.RegisterFlags(rootCmd.Flags())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config) error {
	logger := newLogger(cfg.JSONLog)
	cfg.Logger = logger

	if cfg.PipelineFile == "" {
		return fmt.Errorf("-p/--pipeline is required")
	}

	script, err := os.ReadFile(cfg.PipelineFile)
	if err != nil {
		return fmt.Errorf("read pipeline file: %w", err)
	}

	lookupSources := map[string]lookup.Source{}
	if cfg.LookupFile != "" {
		data, err := os.ReadFile(cfg.LookupFile)
		if err != nil {
			return fmt.Errorf("read lookup file: %w", err)
		}
		lookupSources, err = LoadLookupSources(data)
		if err != nil {
			return err
		}
	}
	caches := cachesFromSources(lookupSources)

	registry := eval.NewRegistry(logger)
	catalog, err := pipeline.Build(string(script), lookupSources, registry)
	if err != nil {
		return fmt.Errorf("build pipeline catalog: %w", err)
	}

	executor := pipeline.NewExecutor(catalog, registry)
	reg := metrics.NewRegistry()
	server := httpapi.NewServer(executor, reg, caches, logger)

	addr := net.JoinHostPort(cfg.Address, fmt.Sprintf("%d", cfg.Port))
	httpServer := &http.Server{Addr: addr, Handler: server.Handler()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("piper listening", "address", addr, "pipelines", catalog.Names())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
		err := httpServer.Shutdown(context.Background())
		closeLookupSources(logger, lookupSources)
		return err
	}
}

// closeLookupSources closes every lookup source that holds a closable
// client (the SQL- and Redis-backed sources hold a live connection pool).
// Each Close is panic-recovered so one misbehaving driver can't stop the
// rest of shutdown from running.
func closeLookupSources(logger *slog.Logger, sources map[string]lookup.Source) {
	for name, src := range sources {
		cache, ok := src.(*lookup.Cache)
		if !ok {
			continue
		}
		closer, ok := cache.Source().(io.Closer)
		if !ok {
			continue
		}
		recovery.Recover(logger, "close lookup source "+name, func() {
			if err := closer.Close(); err != nil {
				logger.Error("error closing lookup source", "source", name, "error", err)
			}
		})
	}
}

// cachesFromSources extracts the *lookup.Cache wrapping each configured
// source, for the GET /metrics surface's per-source hit/miss counters.
// LoadLookupSources always wraps sources with lookup.NewCache, so every
// entry satisfies this.
func cachesFromSources(sources map[string]lookup.Source) []metrics.CacheSource {
	out := make([]metrics.CacheSource, 0, len(sources))
	for _, s := range sources {
		if c, ok := s.(*lookup.Cache); ok {
			out = append(out, c)
		}
	}
	return out
}

func newLogger(jsonLog bool) *slog.Logger {
	var handler slog.Handler
	if jsonLog {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
