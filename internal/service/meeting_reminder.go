package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/internal/event"
	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

const DefaultReminderMinutes = 30

type ReminderSummary struct {
	Meetings      int  `json:"meetings"`
	Participants  int  `json:"participants"`
	AlreadySent   int  `json:"already_sent"`
	EventsCreated int  `json:"events_created"`
	Errors        int  `json:"errors"`
	DryRun        bool `json:"dry_run"`
}

// MeetingReminderScanner emits one meeting_reminder event per participant
// of every meeting starting within the next minutesBefore minutes.
type MeetingReminderScanner struct {
	meetings      repository.MeetingRepository
	publisher     *Publisher
	handoff       Handoff
	minutesBefore int
	dryRun        bool
}

func NewMeetingReminderScanner(meetings repository.MeetingRepository, publisher *Publisher, handoff Handoff, minutesBefore int, dryRun bool) *MeetingReminderScanner {
	if minutesBefore <= 0 {
		minutesBefore = DefaultReminderMinutes
	}
	if handoff == nil {
		handoff = NoHandoff
	}
	return &MeetingReminderScanner{
		meetings:      meetings,
		publisher:     publisher,
		handoff:       handoff,
		minutesBefore: minutesBefore,
		dryRun:        dryRun,
	}
}

func (s *MeetingReminderScanner) reminderType() string {
	return fmt.Sprintf("%dmin", s.minutesBefore)
}

func (s *MeetingReminderScanner) Sweep(ctx context.Context, now time.Time) (ReminderSummary, error) {
	ctx, span := tracer.Start(ctx, "meeting_reminder.sweep")
	defer span.End()

	sum := ReminderSummary{DryRun: s.dryRun}
	meetings, err := s.meetings.StartingBetween(ctx, now, now.Add(time.Duration(s.minutesBefore)*time.Minute))
	if err != nil {
		return sum, err
	}
	reminderType := s.reminderType()

	for _, m := range meetings {
		sum.Meetings++
		participants, err := s.meetings.ParticipantIDs(ctx, m.ID, "")
		if err != nil {
			sum.Errors++
			logger.Error("load meeting participants", zap.String("meeting_id", m.ID), zap.Error(err))
			continue
		}
		for _, userID := range participants {
			sum.Participants++
			if err := s.remind(ctx, m, userID, reminderType, now, &sum); err != nil {
				sum.Errors++
				logger.Error("meeting reminder failed",
					zap.String("meeting_id", m.ID), zap.String("user_id", userID), zap.Error(err))
			}
		}
	}

	span.SetAttributes(attribute.Int("meeting_reminder.events_created", sum.EventsCreated))
	logger.Info("meeting reminder sweep finished",
		zap.Int("meetings", sum.Meetings),
		zap.Int("participants", sum.Participants),
		zap.Int("events_created", sum.EventsCreated),
		zap.Int("errors", sum.Errors),
		zap.Bool("dry_run", sum.DryRun),
	)
	return sum, nil
}

func (s *MeetingReminderScanner) remind(ctx context.Context, m *model.Meeting, userID, reminderType string, now time.Time, sum *ReminderSummary) error {
	sent, err := s.meetings.ReminderSent(ctx, m.ID, userID, reminderType)
	if err != nil {
		return err
	}
	if sent {
		sum.AlreadySent++
		return nil
	}
	if s.dryRun {
		logger.Info("dry run, would remind", zap.String("meeting_id", m.ID), zap.String("user_id", userID))
		return nil
	}

	ev, err := s.publisher.Publish(ctx, EventDraft{
		ProjectID:  model.Str(m.ProjectID),
		MeetingID:  m.ID,
		OccurredAt: now,
		Payload: event.MeetingReminder{
			UserID:          userID,
			MeetingTitle:    m.Title,
			StartTime:       m.StartTime.UTC().Format(time.RFC3339),
			MeetingLink:     model.Str(m.MeetingLink),
			ReminderMinutes: s.minutesBefore,
		},
	}, &model.MeetingReminderSent{
		ID:           uuid.NewString(),
		MeetingID:    m.ID,
		UserID:       userID,
		ReminderType: reminderType,
		CreatedAt:    now,
	})
	if err != nil {
		return err
	}
	if ev == nil {
		sum.AlreadySent++
		return nil
	}
	sum.EventsCreated++
	s.handoff.Submit(ctx, ev)
	return nil
}
