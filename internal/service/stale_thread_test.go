package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/notify-fanout/config"
	"github.com/d60-Lab/notify-fanout/internal/model"
)

func seedStaleThread(t *testing.T, f *fixture) {
	t.Helper()
	f.seed(t,
		&model.Project{ID: "p1", Name: "Alpha Tower", OwnerOrgID: "o1", CreatedAt: at("2025-01-01T00:00:00Z")},
		&model.ChatThread{ID: "t1", ProjectID: model.Ptr("p1"), Topic: model.Ptr("deals")},
		&model.ChatThreadParticipant{ThreadID: "t1", UserID: "sender", LastReadAt: at("2025-03-01T11:00:00Z")},
		&model.ChatThreadParticipant{ThreadID: "t1", UserID: "u1", LastReadAt: at("2025-03-01T09:00:00Z")},
		&model.ChatThreadParticipant{ThreadID: "t1", UserID: "reader", LastReadAt: at("2025-03-01T11:30:00Z")},
		&model.ChatThreadParticipant{ThreadID: "t1", UserID: "muted", LastReadAt: at("2025-03-01T09:00:00Z")},
		&model.UserNotificationPreference{
			ID: uuid.NewString(), UserID: "muted", ScopeType: model.ScopeThread, ScopeID: "t1",
			EventType: string(model.EventThreadUnreadStale), Channel: model.ChannelInApp, Status: model.PreferenceMuted,
		},
		&model.ProjectMessage{ID: "m1", ThreadID: "t1", UserID: "sender", Content: "terms attached", CreatedAt: at("2025-03-01T10:00:00Z")},
		&model.ProjectMessage{ID: "m2", ThreadID: "t1", UserID: "sender", Content: "thoughts?", CreatedAt: at("2025-03-01T11:00:00Z")},
		// 没有消息的线程直接跳过
		&model.ChatThread{ID: "t2", ProjectID: model.Ptr("p1"), Topic: model.Ptr("empty")},
	)
}

func TestStaleThreadSweep(t *testing.T) {
	f := newFixture(t, fakeChecker{}, nil)
	seedStaleThread(t, f)
	ctx := context.Background()

	// 最新消息只过了 2 小时，尚未过期
	sum, err := f.svc.StaleThreads.Sweep(ctx, at("2025-03-01T13:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Candidates)

	sum, err = f.svc.StaleThreads.Sweep(ctx, at("2025-03-01T15:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Threads)
	assert.Equal(t, 2, sum.Candidates)
	assert.Equal(t, 1, sum.Muted)
	assert.Equal(t, 1, sum.EventsCreated)

	var logRow model.UnreadThreadStaleLog
	require.NoError(t, f.db.Where("thread_id = ? AND user_id = ?", "t1", "u1").First(&logRow).Error)
	assert.True(t, logRow.LatestMessageAt.Equal(at("2025-03-01T11:00:00Z")))

	var email model.PendingEmail
	require.NoError(t, f.db.Where("event_id = ? AND user_id = ?", logRow.EventID, "u1").First(&email).Error)
	assert.Equal(t, "2 unread messages in #deals", email.Subject)
	assert.Equal(t, model.DeliveryAggregated, email.DeliveryType)
	assert.Equal(t, "Alpha Tower", model.Str(email.ProjectName))

	// 同一条最新消息不重复提醒
	sum, err = f.svc.StaleThreads.Sweep(ctx, at("2025-03-01T16:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 0, sum.EventsCreated)
	assert.Equal(t, 1, sum.AlreadyLogged)

	// 新消息过期后再次提醒
	f.seed(t, &model.ProjectMessage{ID: "m3", ThreadID: "t1", UserID: "sender", Content: "ping", CreatedAt: at("2025-03-01T12:00:00Z")})
	sum, err = f.svc.StaleThreads.Sweep(ctx, at("2025-03-01T16:00:00Z"))
	require.NoError(t, err)
	// reader 读到 11:30，12:00 的新消息对其也是未读
	assert.Equal(t, 3, sum.Candidates)
	assert.Equal(t, 2, sum.EventsCreated)

	assert.EqualValues(t, 3, f.count(t, &model.UnreadThreadStaleLog{}, ""))
}

func TestStaleThreadDryRun(t *testing.T) {
	cfg := &config.Config{StaleThread: config.StaleThreadConfig{DryRun: true}}
	f := newFixture(t, fakeChecker{}, cfg)
	seedStaleThread(t, f)

	sum, err := f.svc.StaleThreads.Sweep(context.Background(), at("2025-03-01T15:00:00Z"))
	require.NoError(t, err)
	assert.True(t, sum.DryRun)
	assert.Equal(t, 0, sum.EventsCreated)
	require.Len(t, sum.Previews, 1)
	assert.Equal(t, "u1", sum.Previews[0].UserID)
	assert.EqualValues(t, 2, sum.Previews[0].UnreadCount)
	assert.Equal(t, "sender", sum.Previews[0].LatestSenderID)

	assert.EqualValues(t, 0, f.count(t, &model.DomainEvent{}, ""))
	assert.EqualValues(t, 0, f.count(t, &model.UnreadThreadStaleLog{}, ""))
}
