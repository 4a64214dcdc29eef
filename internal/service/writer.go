package service

import (
	"context"
	"time"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
)

// NotificationWriter 写入站内通知；所有写入都是幂等的
type NotificationWriter struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

func NewNotificationWriter(repo repository.NotificationRepository) *NotificationWriter {
	return &NotificationWriter{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Insert writes n unless a row for (user, event) exists already.
func (w *NotificationWriter) Insert(ctx context.Context, n *model.Notification) TaskResult {
	ok, err := w.repo.Create(ctx, n)
	if err != nil {
		return failed(n.UserID, err)
	}
	if !ok {
		return skipped(n.UserID, ReasonAlreadyNotified)
	}
	return written(n.UserID)
}

// Mention always gets its own row carrying the full message.
func (w *NotificationWriter) Mention(ctx context.Context, userID string, eventID int64, title, content, link string, payload any) TaskResult {
	return w.Insert(ctx, &model.Notification{
		UserID:  userID,
		EventID: &eventID,
		Type:    model.NotificationMention,
		Title:   title,
		Body:    content,
		LinkURL: link,
		Payload: jsonOf(payload),
	})
}

// AggregateInput is one chat event to fold into a user's unread thread row.
type AggregateInput struct {
	UserID   string
	ThreadID string
	EventID  int64
	Title    string
	// FirstBody is used for a new row; later events render
	// "<count><BodySuffix>" inside the update itself.
	FirstBody  string
	BodySuffix string
	LinkURL    string
	Payload    any
}

// Aggregate folds the event into the unread thread_activity row for the
// user, or starts one. Each (user, event) pair counts once whatever order
// events arrive in, and a replay after the row was read writes nothing.
func (w *NotificationWriter) Aggregate(ctx context.Context, in AggregateInput) TaskResult {
	key := model.ThreadActivityKey(in.ThreadID)
	eventID := in.EventID
	out, err := w.repo.FoldAggregate(ctx, &model.Notification{
		UserID:         in.UserID,
		EventID:        &eventID,
		Type:           model.NotificationThreadActivity,
		AggregationKey: &key,
		AggregateCount: 1,
		LastEventID:    &eventID,
		Title:          in.Title,
		Body:           in.FirstBody,
		LinkURL:        in.LinkURL,
		Payload:        jsonOf(in.Payload),
	}, in.BodySuffix, w.now())
	if err != nil {
		return failed(in.UserID, err)
	}
	switch out {
	case repository.FoldCreated:
		return written(in.UserID)
	case repository.FoldUpdated:
		return updated(in.UserID)
	default:
		return skipped(in.UserID, ReasonAlreadyNotified)
	}
}
