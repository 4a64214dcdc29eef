// Command meetingreminder sends reminders for meetings about to start.
// Scheduled every 5 minutes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/internal/app"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, nil)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close(context.Background())

	sum, err := a.Services.MeetingReminders.Sweep(ctx, time.Now().UTC())
	if err != nil || sum.Errors > 0 {
		logger.Error("meeting reminder sweep failed", zap.Int("errors", sum.Errors), zap.Error(err))
		a.Close(context.Background())
		os.Exit(1)
	}
}
