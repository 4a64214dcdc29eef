// Command threadnudge emits thread_unread_stale events for threads left
// unread past the threshold. Scheduled every 15 minutes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/internal/app"
	"github.com/d60-Lab/notify-fanout/internal/service"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var queue *service.DispatchQueue
	a, err := app.New(ctx, func(d *service.Dispatcher) service.Handoff {
		queue = service.NewDispatchQueue(d, 1024)
		return queue
	})
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close(context.Background())

	stopQueue := queue.Start(4)
	sum, err := a.Services.StaleThreads.Sweep(ctx, time.Now().UTC())

	// 等待已入队的事件派发完；未派发的由 fan-out 补上
	drainCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if derr := stopQueue(drainCtx); derr != nil {
		logger.Warn("dispatch queue not drained", zap.Int("left", queue.QueueLen()), zap.Error(derr))
	}

	if err != nil {
		logger.Error("stale thread sweep failed", zap.Error(err))
		a.Close(context.Background())
		os.Exit(1)
	}
	logger.Info("stale thread sweep done", zap.Int("events_created", sum.EventsCreated), zap.Int("previews", len(sum.Previews)))
}
