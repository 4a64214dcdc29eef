package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

// Handoff receives events a sweep has just published. Delivery is best
// effort: an event that is never handed off is still picked up by fan-out.
type Handoff interface {
	Submit(ctx context.Context, ev *model.DomainEvent)
}

// HandoffFunc adapts a function to Handoff.
type HandoffFunc func(ctx context.Context, ev *model.DomainEvent)

func (f HandoffFunc) Submit(ctx context.Context, ev *model.DomainEvent) { f(ctx, ev) }

// DirectHandoff dispatches inline; a failed dispatch is only logged.
func DirectHandoff(dispatcher eventDispatcher) Handoff {
	return HandoffFunc(func(ctx context.Context, ev *model.DomainEvent) {
		res := dispatcher.DispatchEvent(ctx, ev)
		if res.Status == StatusFailed {
			logger.Warn("handoff dispatch failed, fan-out will retry",
				zap.Int64("event_id", ev.ID), zap.Error(res.Err))
		}
	})
}

// NoHandoff leaves every event to the fan-out worker.
var NoHandoff Handoff = HandoffFunc(func(context.Context, *model.DomainEvent) {})
