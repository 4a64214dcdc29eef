package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

type handoffJob struct {
	ev    *model.DomainEvent
	enqAt time.Time
}

// DispatchQueue 把扫描任务产生的事件异步交给 Dispatcher。
// 队列满时直接丢弃：事件已落库，下一轮 fan-out 会补上。
type DispatchQueue struct {
	dispatcher eventDispatcher
	ch         chan handoffJob
	metricsCh  chan time.Duration
	wg         sync.WaitGroup
	once       sync.Once
}

func NewDispatchQueue(dispatcher eventDispatcher, queueSize int) *DispatchQueue {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &DispatchQueue{
		dispatcher: dispatcher,
		ch:         make(chan handoffJob, queueSize),
		metricsCh:  make(chan time.Duration, 65536),
	}
}

// Start launches the workers and returns a stop function that drains the
// queue, waiting at most until ctx is done.
func (q *DispatchQueue) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.ch {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				res := q.dispatcher.DispatchEvent(ctx, job.ev)
				cancel()
				if res.Status == StatusFailed {
					logger.Warn("handoff dispatch failed, fan-out will retry",
						zap.Int64("event_id", job.ev.ID), zap.Error(res.Err))
				}
				select {
				case q.metricsCh <- time.Since(job.enqAt):
				default:
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		q.once.Do(func() { close(q.ch) })
		done := make(chan struct{})
		go func() {
			q.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Submit 非阻塞入队；stop 之后不可再调用
func (q *DispatchQueue) Submit(_ context.Context, ev *model.DomainEvent) {
	select {
	case q.ch <- handoffJob{ev: ev, enqAt: time.Now()}:
	default:
		logger.Warn("dispatch queue full, leaving event to fan-out", zap.Int64("event_id", ev.ID))
	}
}

// Metrics 返回入队到处理完成的耗时
func (q *DispatchQueue) Metrics() <-chan time.Duration { return q.metricsCh }

// QueueLen 返回当前队列长度（采样值）
func (q *DispatchQueue) QueueLen() int { return len(q.ch) }
