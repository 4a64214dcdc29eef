package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

func TestMeetingReminderSweep(t *testing.T) {
	f := newFixture(t, fakeChecker{}, nil)
	now := at("2025-03-01T15:00:00Z")
	f.seed(t,
		&model.Meeting{ID: "m1", OrganizerID: "host", Title: "IC review", StartTime: now.Add(20 * time.Minute), Status: "scheduled", MeetingLink: model.Ptr("https://meet.example.com/ic")},
		&model.Meeting{ID: "m2", OrganizerID: "host", Title: "Later", StartTime: now.Add(45 * time.Minute), Status: "scheduled"},
		&model.Meeting{ID: "m3", OrganizerID: "host", Title: "Cancelled", StartTime: now.Add(10 * time.Minute), Status: "cancelled"},
		&model.MeetingParticipant{MeetingID: "m1", UserID: "u1"},
		&model.MeetingParticipant{MeetingID: "m1", UserID: "u2"},
		&model.MeetingParticipant{MeetingID: "m2", UserID: "u1"},
		&model.MeetingParticipant{MeetingID: "m3", UserID: "u1"},
	)
	ctx := context.Background()

	sum, err := f.svc.MeetingReminders.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Meetings)
	assert.Equal(t, 2, sum.EventsCreated)

	rows := f.notifications(t, "u1")
	require.Len(t, rows, 1)
	assert.Equal(t, model.NotificationMeetingReminder, rows[0].Type)
	assert.Equal(t, "Reminder: Meeting in 30 minutes", rows[0].Title)
	assert.Equal(t, "**IC review**\nStarts at 03:20 PM", rows[0].Body)
	assert.Len(t, f.notifications(t, "u2"), 1)

	var sent model.MeetingReminderSent
	require.NoError(t, f.db.Where("meeting_id = ? AND user_id = ?", "m1", "u2").First(&sent).Error)
	assert.Equal(t, "30min", sent.ReminderType)
	assert.NotZero(t, sent.EventID)

	sum, err = f.svc.MeetingReminders.Sweep(ctx, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, sum.EventsCreated)
	assert.Equal(t, 2, sum.AlreadySent)
	assert.Len(t, f.notifications(t, "u1"), 1)
}
