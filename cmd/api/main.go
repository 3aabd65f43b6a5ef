package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
)

type CustomHandler struct {
	slog.Handler
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {

	r.AddAttrs(slog.String("type", "app"))

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(slog.String("traceID", span.SpanContext().TraceID().String()))
		r.AddAttrs(slog.String("spanID", span.SpanContext().SpanID().String()))
	}

	return h.Handler.Handle(ctx, r)
}

var (
	version = "unknown"
)

func main() {

	fmt.Fprint(os.Stderr, sigchatBanner)

	handler := &CustomHandler{Handler: slog.NewJSONHandler(os.Stdout, nil)}
	slogger := slog.New(handler)
	slog.SetDefault(slogger)

	slog.Info(fmt.Sprintf("sigchat %s starting...", version))

	config := DefaultConfig()
	configPath := os.Getenv("SIGCHAT_CONFIG")
	if configPath == "" {
		configPath = "/etc/sigchat/config.yaml"
	}

	err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Config loaded!", slog.String("listen", config.Server.Listen), slog.String("dataDir", config.Server.DataDir))

	os.Exit(serve(config))
}

// serve returns the process exit code once every deferred cleanup has run
func serve(config Config) int {
	if config.Server.EnableTrace {
		cleanup, err := setupTraceProvider(config.Server.TraceEndpoint, "sigchat", version)
		if err != nil {
			slog.Error("Failed to setup trace provider", slog.String("error", err.Error()))
			return 1
		}
		defer cleanup()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, config)
	if err != nil {
		slog.Error("sigchat stopped", slog.String("error", err.Error()))
		return 1
	}

	return 0
}

func run(ctx context.Context, config Config) error {
	s, err := newServer(ctx, config)
	if err != nil {
		return err
	}
	defer s.Close()

	err = s.collectMetrics(ctx, 15*time.Second)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info(fmt.Sprintf("listening on %s", config.Server.Listen))
		errCh <- s.e.Start(config.Server.Listen)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server failed")
	}
}
