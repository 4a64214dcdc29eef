// Command fanout processes pending domain events once and exits. It is
// scheduled every minute; with -loop it keeps polling instead.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/internal/app"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

func main() {
	loop := flag.Bool("loop", false, "keep polling at fanout.poll_interval")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, nil)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close(context.Background())

	worker := a.Services.Fanout
	if !*loop {
		sum, err := worker.RunOnce(ctx)
		if err != nil {
			logger.Error("fanout run failed", zap.Error(err))
			a.Close(context.Background())
			os.Exit(1)
		}
		if sum.Failed > 0 {
			logger.Warn("fanout run had failures", zap.Int("failed", sum.Failed))
		}
		return
	}

	stopWorker := worker.Start(a.Config.Fanout.PollInterval)
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := stopWorker(shutdownCtx); err != nil {
		logger.Warn("fanout worker did not stop in time", zap.Error(err))
	}
}
