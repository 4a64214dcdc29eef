package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/internal/event"
	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/pkg/errtrack"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

var tracer = otel.Tracer("github.com/d60-Lab/notify-fanout/internal/service")

type handlerFunc func(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result

// DispatcherDeps are the stores and collaborators every handler draws on.
type DispatcherDeps struct {
	Events        repository.EventRepository
	Threads       repository.ThreadRepository
	Meetings      repository.MeetingRepository
	Members       repository.MembershipRepository
	Emails        repository.EmailQueueRepository
	Notifications repository.NotificationRepository
	Preferences   *PreferenceResolver
	Recipients    *RecipientResolver
	Directory     *Directory
}

// Dispatcher turns one domain event into per-recipient notification writes.
// It holds no transaction across recipients; every write is idempotent so a
// failed dispatch is simply run again.
type Dispatcher struct {
	events   repository.EventRepository
	threads  repository.ThreadRepository
	meetings repository.MeetingRepository
	members  repository.MembershipRepository
	emails   repository.EmailQueueRepository
	prefs    *PreferenceResolver
	recips   *RecipientResolver
	dedup    *DedupGuard
	writer   *NotificationWriter
	dir      *Directory
	handlers map[model.EventType]handlerFunc
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	d := &Dispatcher{
		events:   deps.Events,
		threads:  deps.Threads,
		meetings: deps.Meetings,
		members:  deps.Members,
		emails:   deps.Emails,
		prefs:    deps.Preferences,
		recips:   deps.Recipients,
		dedup:    NewDedupGuard(deps.Notifications),
		writer:   NewNotificationWriter(deps.Notifications),
		dir:      deps.Directory,
	}
	d.handlers = map[model.EventType]handlerFunc{
		model.EventDocumentUploaded:          d.handleDocumentUploaded,
		model.EventChatMessageSent:           d.handleChatMessage,
		model.EventThreadUnreadStale:         d.handleThreadUnreadStale,
		model.EventMeetingInvited:            d.handleMeetingInvited,
		model.EventMeetingUpdated:            d.handleMeetingUpdated,
		model.EventMeetingReminder:           d.handleMeetingReminder,
		model.EventResumeIncompleteNudge:     d.handleResumeIncompleteNudge,
		model.EventInviteAccepted:            d.handleInviteAccepted,
		model.EventProjectAccessGranted:      d.handleProjectAccessGranted,
		model.EventProjectAccessChanged:      d.handleProjectAccessChanged,
		model.EventProjectAccessRevoked:      d.handleProjectAccessRevoked,
		model.EventDocumentPermissionGranted: d.handleDocumentPermissionGranted,
		model.EventDocumentPermissionChanged: d.handleDocumentPermissionChanged,
	}
	return d
}

// Dispatch loads the event and dispatches it. A missing event yields a
// skipped result and an error wrapping ErrEventNotFound.
func (d *Dispatcher) Dispatch(ctx context.Context, eventID int64) (Result, error) {
	ev, err := d.events.Get(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return Result{EventID: eventID, Status: StatusSkipped, Reason: ReasonNotFound},
			fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	if err != nil {
		return Result{EventID: eventID, Status: StatusFailed, Failed: 1, Err: err},
			fmt.Errorf("load event %d: %w", eventID, err)
	}
	return d.DispatchEvent(ctx, ev), nil
}

// DispatchEvent runs the handler for ev. Failures are carried in the result,
// never panicked or returned, so callers can always record an outcome.
func (d *Dispatcher) DispatchEvent(ctx context.Context, ev *model.DomainEvent) Result {
	ctx, span := tracer.Start(ctx, "dispatch "+string(ev.EventType), trace.WithAttributes(
		attribute.Int64("event.id", ev.ID),
		attribute.String("event.type", string(ev.EventType)),
	))
	defer span.End()

	res := d.route(ctx, ev)
	res.finish()

	span.SetAttributes(
		attribute.String("dispatch.status", string(res.Status)),
		attribute.Int("dispatch.written", res.Written),
		attribute.Int("dispatch.updated", res.Updated),
		attribute.Int("dispatch.failed", res.Failed),
	)
	fields := []zap.Field{
		zap.Int64("event_id", ev.ID),
		zap.String("event_type", string(ev.EventType)),
		zap.String("status", string(res.Status)),
		zap.Int("written", res.Written),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Int("emails_queued", res.EmailsQueued),
	}
	switch res.Status {
	case StatusFailed:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "dispatch failed")
		logger.Error("dispatch failed", append(fields, zap.Error(res.Err))...)
		errtrack.Capture(res.Err, map[string]string{
			"event_type": string(ev.EventType),
			"event_id":   strconv.FormatInt(ev.ID, 10),
		})
	case StatusSkipped:
		logger.Info("dispatch skipped", append(fields, zap.String("reason", string(res.Reason)))...)
	default:
		logger.Info("dispatch done", fields...)
	}
	return *res
}

func (d *Dispatcher) route(ctx context.Context, ev *model.DomainEvent) *Result {
	res := newResult(ev)
	p, err := event.Parse(ev)
	switch {
	case errors.Is(err, event.ErrUnsupported):
		return res.skip(ReasonUnsupportedEvent)
	case errors.Is(err, event.ErrInvalid):
		logger.Warn("invalid event payload", zap.Int64("event_id", ev.ID), zap.Error(err))
		return res.skip(ReasonInvalidPayload)
	case err != nil:
		return res.fail(err)
	}

	h, ok := d.handlers[ev.EventType]
	if !ok {
		return res.skip(ReasonUnsupportedEvent)
	}
	return h(ctx, ev, p)
}

// delivery is one (event, recipient) task. A nil notification means the
// delivery is email only; a nil pref skips the mute check.
type delivery struct {
	userID       string
	pref         *PreferenceQuery
	notification *model.Notification
	email        *model.PendingEmail
}

// deliver runs one task: dedup, mute check, email enqueue, then the in-app
// row. The email goes first so a retry after a failed insert still finds it
// pending rather than skipping the user as already notified.
func (d *Dispatcher) deliver(ctx context.Context, notified map[string]struct{}, dl delivery) TaskResult {
	if _, ok := notified[dl.userID]; ok {
		return skipped(dl.userID, ReasonAlreadyNotified)
	}
	if dl.pref != nil {
		muted, err := d.prefs.IsMuted(ctx, dl.userID, *dl.pref)
		if err != nil {
			return failed(dl.userID, err)
		}
		if muted {
			return skipped(dl.userID, ReasonMuted)
		}
	}

	queued := false
	if dl.email != nil {
		dl.email.UserID = dl.userID
		ok, err := d.emails.Enqueue(ctx, dl.email)
		if err != nil {
			return failed(dl.userID, err)
		}
		queued = ok
	}

	if dl.notification == nil {
		if !queued {
			return skipped(dl.userID, ReasonAlreadyNotified)
		}
		t := written(dl.userID)
		t.EmailQueued = true
		return t
	}

	dl.notification.UserID = dl.userID
	t := d.writer.Insert(ctx, dl.notification)
	t.EmailQueued = queued
	return t
}

func inApp(eventType string, threadID, projectID string) *PreferenceQuery {
	return &PreferenceQuery{ThreadID: threadID, ProjectID: projectID, EventType: eventType, Channel: model.ChannelInApp}
}

func newNotification(ev *model.DomainEvent, typ model.NotificationType, title, body, link string, payload any) *model.Notification {
	eventID := ev.ID
	return &model.Notification{
		EventID: &eventID,
		Type:    typ,
		Title:   title,
		Body:    body,
		LinkURL: link,
		Payload: jsonOf(payload),
	}
}

func newEmail(ev *model.DomainEvent, delivery model.DeliveryType, projectID, projectName, subject string, body any) *model.PendingEmail {
	return &model.PendingEmail{
		EventID:      ev.ID,
		EventType:    ev.EventType,
		DeliveryType: delivery,
		ProjectID:    model.Ptr(projectID),
		ProjectName:  model.Ptr(projectName),
		Subject:      subject,
		BodyData:     jsonOf(body),
	}
}
