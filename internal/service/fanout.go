package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/config"
	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

// FanoutSummary 一次 RunOnce 的统计
type FanoutSummary struct {
	Recovered int64 `json:"recovered"`
	Batches   int   `json:"batches"`
	Claimed   int   `json:"claimed"`
	Written   int   `json:"written"`
	Skipped   int   `json:"skipped"`
	Failed    int   `json:"failed"`
	Lost      int   `json:"lost"` // 被其它处理者抢先认领
	DryRun    bool  `json:"dry_run"`
}

// eventDispatcher is the part of Dispatcher the sweeps depend on.
type eventDispatcher interface {
	DispatchEvent(ctx context.Context, ev *model.DomainEvent) Result
}

// FanoutWorker 轮询未处理的领域事件，认领后交给 Dispatcher
type FanoutWorker struct {
	events      repository.EventRepository
	dispatcher  eventDispatcher
	cfg         config.FanoutConfig
	processorID string
	now         func() time.Time
	metricsCh   chan time.Duration // occurred_at -> processed latency
}

func NewFanoutWorker(events repository.EventRepository, dispatcher eventDispatcher, cfg config.FanoutConfig, processorID string) *FanoutWorker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.MaxEventAge <= 0 {
		cfg.MaxEventAge = 24 * time.Hour
	}
	if cfg.ProcessingStaleAfter <= 0 {
		cfg.ProcessingStaleAfter = 10 * time.Minute
	}
	return &FanoutWorker{
		events:      events,
		dispatcher:  dispatcher,
		cfg:         cfg,
		processorID: processorID,
		now:         func() time.Time { return time.Now().UTC() },
		metricsCh:   make(chan time.Duration, 65536),
	}
}

// Metrics 返回事件发生到处理完成的耗时（非阻塞发送，满则丢弃）
func (w *FanoutWorker) Metrics() <-chan time.Duration { return w.metricsCh }

// RunOnce drains the pending events once: stale claims are released, then
// pending events are claimed and dispatched in id order until a short batch.
// Each event is attempted at most once per run; failures wait for the next run.
func (w *FanoutWorker) RunOnce(ctx context.Context) (FanoutSummary, error) {
	ctx, span := tracer.Start(ctx, "fanout.run_once")
	defer span.End()

	sum := FanoutSummary{DryRun: w.cfg.DryRun}
	now := w.now()

	recovered, err := w.events.RecoverStale(ctx, now.Add(-w.cfg.ProcessingStaleAfter))
	if err != nil {
		return sum, err
	}
	sum.Recovered = recovered
	if recovered > 0 {
		logger.Warn("released stale processing claims", zap.Int64("count", recovered))
	}

	since := now.Add(-w.cfg.MaxEventAge)
	var cursor int64
	for {
		batch, err := w.events.ListPending(ctx, since, w.cfg.MaxRetries, cursor, w.cfg.BatchSize)
		if err != nil {
			return sum, err
		}
		if len(batch) == 0 {
			break
		}
		sum.Batches++
		for _, ev := range batch {
			cursor = ev.ID
			w.process(ctx, ev, &sum)
		}
		if len(batch) < w.cfg.BatchSize {
			break
		}
	}

	span.SetAttributes(
		attribute.Int("fanout.claimed", sum.Claimed),
		attribute.Int("fanout.failed", sum.Failed),
	)
	logger.Info("fanout run finished",
		zap.Int64("recovered", sum.Recovered),
		zap.Int("batches", sum.Batches),
		zap.Int("claimed", sum.Claimed),
		zap.Int("written", sum.Written),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
		zap.Int("lost", sum.Lost),
		zap.Bool("dry_run", sum.DryRun),
	)
	return sum, nil
}

func (w *FanoutWorker) process(ctx context.Context, ev *model.DomainEvent, sum *FanoutSummary) {
	ok, err := w.events.Claim(ctx, ev.ID, w.processorID, w.cfg.MaxRetries, w.now())
	if err != nil {
		logger.Error("claim failed", zap.Int64("event_id", ev.ID), zap.Error(err))
		sum.Failed++
		return
	}
	if !ok {
		sum.Lost++
		return
	}
	sum.Claimed++

	if w.cfg.DryRun {
		logger.Info("dry run, not dispatching", zap.Int64("event_id", ev.ID), zap.String("event_type", string(ev.EventType)))
		w.complete(ctx, ev.ID)
		sum.Skipped++
		return
	}

	res := w.dispatcher.DispatchEvent(ctx, ev)
	switch res.Status {
	case StatusFailed:
		sum.Failed++
		reason := "dispatch failed"
		if res.Err != nil {
			reason = res.Err.Error()
		}
		if err := w.events.MarkFailed(ctx, ev.ID, reason, w.now()); err != nil {
			logger.Error("mark failed", zap.Int64("event_id", ev.ID), zap.Error(err))
		}
	case StatusSkipped:
		sum.Skipped++
		w.complete(ctx, ev.ID)
	default:
		sum.Written++
		w.complete(ctx, ev.ID)
	}

	if !ev.OccurredAt.IsZero() {
		select {
		case w.metricsCh <- w.now().Sub(ev.OccurredAt):
		default:
		}
	}
}

func (w *FanoutWorker) complete(ctx context.Context, eventID int64) {
	if err := w.events.MarkCompleted(ctx, eventID, w.now()); err != nil {
		// 记录仍是 processing，超时后会被 RecoverStale 释放并重试
		logger.Error("mark completed", zap.Int64("event_id", eventID), zap.Error(err))
	}
}

// Start 以固定间隔循环调用 RunOnce；返回停止函数
func (w *FanoutWorker) Start(interval time.Duration) func(context.Context) error {
	if interval <= 0 {
		interval = time.Minute
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if _, err := w.RunOnce(context.Background()); err != nil {
					logger.Error("fanout run failed", zap.Error(err))
				}
			}
		}
	}()
	return func(ctx context.Context) error {
		close(stop)
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
