package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/internal/event"
	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

const DefaultStaleThreshold = 3 * time.Hour

// StalePreview 试运行时返回的待提醒条目
type StalePreview struct {
	ThreadID        string    `json:"thread_id"`
	ProjectID       string    `json:"project_id"`
	UserID          string    `json:"user_id"`
	LastReadAt      time.Time `json:"last_read_at"`
	LatestMessageAt time.Time `json:"latest_message_at"`
	LatestSenderID  string    `json:"latest_sender_id"`
	UnreadCount     int64     `json:"unread_count"`
}

type StaleSummary struct {
	Threads       int            `json:"threads"`
	Candidates    int            `json:"candidates"`
	AlreadyLogged int            `json:"already_logged"`
	Muted         int            `json:"muted"`
	EventsCreated int            `json:"events_created"`
	Errors        int            `json:"errors"`
	DryRun        bool           `json:"dry_run"`
	Previews      []StalePreview `json:"previews,omitempty"`
}

// StaleThreadDetector finds participants who have left a thread unread for
// longer than the threshold and emits one thread_unread_stale event per
// (thread, user, latest message).
type StaleThreadDetector struct {
	threads   repository.ThreadRepository
	prefs     *PreferenceResolver
	publisher *Publisher
	handoff   Handoff
	threshold time.Duration
	dryRun    bool
	pageSize  int
}

func NewStaleThreadDetector(threads repository.ThreadRepository, prefs *PreferenceResolver, publisher *Publisher, handoff Handoff, threshold time.Duration, dryRun bool) *StaleThreadDetector {
	if threshold <= 0 {
		threshold = DefaultStaleThreshold
	}
	if handoff == nil {
		handoff = NoHandoff
	}
	return &StaleThreadDetector{
		threads:   threads,
		prefs:     prefs,
		publisher: publisher,
		handoff:   handoff,
		threshold: threshold,
		dryRun:    dryRun,
		pageSize:  200,
	}
}

func (d *StaleThreadDetector) Sweep(ctx context.Context, now time.Time) (StaleSummary, error) {
	ctx, span := tracer.Start(ctx, "stale_thread.sweep")
	defer span.End()

	sum := StaleSummary{DryRun: d.dryRun}
	cutoff := now.Add(-d.threshold)
	for offset := 0; ; offset += d.pageSize {
		threads, err := d.threads.List(ctx, offset, d.pageSize)
		if err != nil {
			return sum, err
		}
		for _, th := range threads {
			sum.Threads++
			if err := d.sweepThread(ctx, th, now, cutoff, &sum); err != nil {
				sum.Errors++
				logger.Error("stale thread check failed", zap.String("thread_id", th.ID), zap.Error(err))
			}
		}
		if len(threads) < d.pageSize {
			break
		}
	}

	span.SetAttributes(attribute.Int("stale_thread.events_created", sum.EventsCreated))
	logger.Info("stale thread sweep finished",
		zap.Int("threads", sum.Threads),
		zap.Int("candidates", sum.Candidates),
		zap.Int("events_created", sum.EventsCreated),
		zap.Int("errors", sum.Errors),
		zap.Bool("dry_run", sum.DryRun),
	)
	return sum, nil
}

func (d *StaleThreadDetector) sweepThread(ctx context.Context, th *model.ChatThread, now, cutoff time.Time, sum *StaleSummary) error {
	latest, err := d.threads.LatestMessage(ctx, th.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !latest.CreatedAt.Before(cutoff) {
		return nil
	}

	participants, err := d.threads.Participants(ctx, th.ID)
	if err != nil {
		return err
	}
	projectID := model.Str(th.ProjectID)
	for _, part := range participants {
		if part.UserID == latest.UserID || !part.LastReadAt.Before(latest.CreatedAt) {
			continue
		}
		sum.Candidates++

		unread, err := d.threads.CountMessagesAfter(ctx, th.ID, part.LastReadAt)
		if err != nil {
			return err
		}
		if unread == 0 {
			unread = 1
		}

		logged, err := d.threads.StaleLogExists(ctx, th.ID, part.UserID, latest.CreatedAt)
		if err != nil {
			return err
		}
		if logged {
			sum.AlreadyLogged++
			continue
		}

		muted, err := d.prefs.IsMuted(ctx, part.UserID, *inApp(string(model.EventThreadUnreadStale), th.ID, projectID))
		if err != nil {
			return err
		}
		if muted {
			sum.Muted++
			continue
		}

		if d.dryRun {
			sum.Previews = append(sum.Previews, StalePreview{
				ThreadID:        th.ID,
				ProjectID:       projectID,
				UserID:          part.UserID,
				LastReadAt:      part.LastReadAt,
				LatestMessageAt: latest.CreatedAt,
				LatestSenderID:  latest.UserID,
				UnreadCount:     unread,
			})
			continue
		}

		ev, err := d.publisher.Publish(ctx, EventDraft{
			ProjectID:  projectID,
			ThreadID:   th.ID,
			OccurredAt: now,
			Payload: event.ThreadUnreadStale{
				UserID:           part.UserID,
				ThreadTopic:      model.Str(th.Topic),
				LatestMessageAt:  latest.CreatedAt.UTC().Format(time.RFC3339Nano),
				LatestSenderID:   latest.UserID,
				AnchorLastReadAt: part.LastReadAt.UTC().Format(time.RFC3339Nano),
				UnreadCount:      int(unread),
			},
		}, &model.UnreadThreadStaleLog{
			ID:              uuid.NewString(),
			ThreadID:        th.ID,
			UserID:          part.UserID,
			LatestMessageAt: latest.CreatedAt,
			SentAt:          now,
		})
		if err != nil {
			return err
		}
		if ev == nil {
			// 并发扫描已写入同一条日志
			sum.AlreadyLogged++
			continue
		}
		sum.EventsCreated++
		logger.Info("stale thread event created",
			zap.Int64("event_id", ev.ID),
			zap.String("thread_id", th.ID),
			zap.String("user_id", part.UserID),
			zap.Int64("unread", unread),
		)
		d.handoff.Submit(ctx, ev)
	}
	return nil
}
