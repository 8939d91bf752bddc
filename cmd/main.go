package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/threadbot-backend/internal/app"
	apphttp "github.com/yungbote/threadbot-backend/internal/http"
	"github.com/yungbote/threadbot-backend/internal/pkg/envutil"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

func main() {
	log, err := logger.New(envutil.String("LOG_MODE", "dev"))
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}

	if err := a.RegisterWebhook(ctx); err != nil {
		log.Fatal("webhook registration failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		return apphttp.Shutdown(a.Server, 15*time.Second)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited", "error", err)
	}
	log.Info("Stopped cleanly")
}
