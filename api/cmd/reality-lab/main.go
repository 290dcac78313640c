package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivay00001/Reality-Lab/api/internal/app"
	"github.com/Shivay00001/Reality-Lab/api/internal/config"
	"github.com/Shivay00001/Reality-Lab/api/internal/handle"
	"github.com/Shivay00001/Reality-Lab/api/internal/logging"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat, "reality-lab")
	if err != nil {
		log.Fatalf("logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	go a.RunJanitor(ctx, time.Minute)

	mux := http.NewServeMux()
	handle.New(a.Engines, a.Sessions, cfg.AnalyzeTimeout).
		WithReports(a.Reports).
		WithLogger(logger).
		Register(mux)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info("reality-lab listening on " + addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
