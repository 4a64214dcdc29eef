// Command fanoutbench seeds a chat thread and measures dispatch latency of
// the fan-out worker against the dispatch queue.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/notify-fanout/internal/app"
	"github.com/d60-Lab/notify-fanout/internal/event"
	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/internal/service"
)

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func main() {
	ctx := context.Background()
	var queue *service.DispatchQueue
	a, err := app.New(ctx, func(d *service.Dispatcher) service.Handoff {
		queue = service.NewDispatchQueue(d, 65536)
		return queue
	})
	if err != nil {
		panic(err)
	}
	defer a.Close(ctx)
	db := a.DB
	if err := repository.Migrate(db); err != nil {
		panic(err)
	}

	participants := envInt("PARTICIPANTS", 50)
	events := envInt("EVENTS", 200)
	workers := envInt("WORKERS", 8)

	// 准备一个线程和参与者
	projectID, threadID := uuid.NewString(), uuid.NewString()
	must(db.Create(&model.Project{ID: projectID, Name: "bench", OwnerOrgID: uuid.NewString(), CreatedAt: time.Now().UTC()}).Error)
	must(db.Create(&model.ChatThread{ID: threadID, ProjectID: &projectID, Topic: model.Ptr("bench")}).Error)
	parts := make([]model.ChatThreadParticipant, participants)
	for i := range parts {
		parts[i] = model.ChatThreadParticipant{ThreadID: threadID, UserID: fmt.Sprintf("bench-%s-%03d", threadID[:8], i), LastReadAt: time.Now().UTC()}
	}
	must(db.CreateInBatches(parts, 500).Error)
	sender := parts[0].UserID

	seed := func(n int) []*model.DomainEvent {
		out := make([]*model.DomainEvent, n)
		for i := range out {
			raw, _ := json.Marshal(event.ChatMessageSent{FullContent: fmt.Sprintf("message %d", i)})
			out[i] = &model.DomainEvent{
				EventType:  model.EventChatMessageSent,
				ActorID:    &sender,
				ProjectID:  &projectID,
				ThreadID:   &threadID,
				OccurredAt: time.Now().UTC(),
				Payload:    raw,
			}
		}
		must(db.CreateInBatches(out, 500).Error)
		return out
	}

	// 1) 轮询 worker 顺序处理
	seed(events)
	st := time.Now()
	sum, err := a.Services.Fanout.RunOnce(ctx)
	must(err)
	pollTotal := time.Since(st)
	pollLat := drain(a.Services.Fanout.Metrics(), sum.Claimed)

	// 2) 新一批事件直接入队，并发派发
	batch := seed(events)
	stop := queue.Start(workers)
	st = time.Now()
	for _, ev := range batch {
		queue.Submit(ctx, ev)
	}
	must(stop(ctx))
	queueTotal := time.Since(st)
	queueLat := drain(queue.Metrics(), len(batch))

	fmt.Printf("PARTICIPANTS=%d EVENTS=%d WORKERS=%d\n", participants, events, workers)
	fmt.Printf("Fan-out worker: total=%v claimed=%d failed=%d avg=%v p95=%v p99=%v\n",
		pollTotal, sum.Claimed, sum.Failed, avg(pollLat), pct(pollLat, 0.95), pct(pollLat, 0.99))
	fmt.Printf("Dispatch queue: total=%v avg=%v p95=%v p99=%v\n",
		queueTotal, avg(queueLat), pct(queueLat, 0.95), pct(queueLat, 0.99))
	hits, misses := a.Services.Directory.Stats()
	fmt.Printf("Directory cache: hits=%d misses=%d\n", hits, misses)
}

func drain(ch <-chan time.Duration, max int) []time.Duration {
	out := make([]time.Duration, 0, max)
	for len(out) < max {
		select {
		case d := <-ch:
			out = append(out, d)
		default:
			return out
		}
	}
	return out
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(float64(len(xs)) * p)
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
