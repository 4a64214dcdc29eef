package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/internal/repository/repotest"
)

func newEvent(typ model.EventType) *model.DomainEvent {
	return &model.DomainEvent{
		EventType:  typ,
		ProjectID:  model.Ptr("p1"),
		OccurredAt: repotest.Time("2025-01-01T10:00:00Z"),
		Payload:    datatypes.JSON(`{}`),
	}
}

func TestClaimLifecycle(t *testing.T) {
	db := repotest.Open(t)
	repo := repository.NewEventRepository(db)
	ctx := context.Background()
	now := repotest.Time("2025-01-01T10:01:00Z")

	ev := newEvent(model.EventDocumentUploaded)
	require.NoError(t, db.Create(ev).Error)

	ok, err := repo.Claim(ctx, ev.ID, "w1", 3, now)
	require.NoError(t, err)
	assert.True(t, ok)

	// 已在处理中，第二个处理者拿不到
	ok, err = repo.Claim(ctx, ev.ID, "w2", 3, now)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.MarkFailed(ctx, ev.ID, "boom", now))
	rec, err := repo.Processing(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProcessingFailed, rec.Status)
	assert.Equal(t, 1, rec.RetryCount)
	assert.Equal(t, "boom", rec.ErrorMessage)

	ok, err = repo.Claim(ctx, ev.ID, "w2", 3, now)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.MarkCompleted(ctx, ev.ID, now))
	ok, err = repo.Claim(ctx, ev.ID, "w3", 3, now)
	require.NoError(t, err)
	assert.False(t, ok, "completed events are never reclaimed")
}

func TestClaimRespectsMaxRetries(t *testing.T) {
	db := repotest.Open(t)
	repo := repository.NewEventRepository(db)
	ctx := context.Background()
	now := repotest.Time("2025-01-01T10:01:00Z")

	ev := newEvent(model.EventDocumentUploaded)
	require.NoError(t, db.Create(ev).Error)

	for i := 0; i < 2; i++ {
		ok, err := repo.Claim(ctx, ev.ID, "w", 2, now)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, repo.MarkFailed(ctx, ev.ID, "again", now))
	}
	ok, err := repo.Claim(ctx, ev.ID, "w", 2, now)
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err := repo.ListPending(ctx, repotest.Time("2025-01-01T00:00:00Z"), 2, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRecoverStale(t *testing.T) {
	db := repotest.Open(t)
	repo := repository.NewEventRepository(db)
	ctx := context.Background()

	old := newEvent(model.EventDocumentUploaded)
	fresh := newEvent(model.EventDocumentUploaded)
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Create(fresh).Error)

	_, err := repo.Claim(ctx, old.ID, "dead", 3, repotest.Time("2025-01-01T10:00:00Z"))
	require.NoError(t, err)
	_, err = repo.Claim(ctx, fresh.ID, "alive", 3, repotest.Time("2025-01-01T10:20:00Z"))
	require.NoError(t, err)

	n, err := repo.RecoverStale(ctx, repotest.Time("2025-01-01T10:10:00Z"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	pending, err := repo.ListPending(ctx, repotest.Time("2025-01-01T00:00:00Z"), 3, 0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, old.ID, pending[0].ID)
}

func TestListPendingWindowAndOrder(t *testing.T) {
	db := repotest.Open(t)
	repo := repository.NewEventRepository(db)
	ctx := context.Background()

	tooOld := newEvent(model.EventDocumentUploaded)
	tooOld.OccurredAt = repotest.Time("2024-12-01T00:00:00Z")
	a := newEvent(model.EventChatMessageSent)
	b := newEvent(model.EventMeetingInvited)
	for _, ev := range []*model.DomainEvent{tooOld, a, b} {
		require.NoError(t, db.Create(ev).Error)
	}

	pending, err := repo.ListPending(ctx, repotest.Time("2025-01-01T00:00:00Z"), 3, 0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, a.ID, pending[0].ID)
	assert.Equal(t, b.ID, pending[1].ID)

	pending, err = repo.ListPending(ctx, repotest.Time("2025-01-01T00:00:00Z"), 3, a.ID, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)
}

func TestPublishRollsBackOnDuplicateLink(t *testing.T) {
	db := repotest.Open(t)
	repo := repository.NewEventRepository(db)
	ctx := context.Background()
	latest := repotest.Time("2025-01-01T09:00:00Z")

	newLog := func() *model.UnreadThreadStaleLog {
		return &model.UnreadThreadStaleLog{
			ID:              uuid.NewString(),
			ThreadID:        "t1",
			UserID:          "u1",
			LatestMessageAt: latest,
			SentAt:          repotest.Time("2025-01-01T12:00:00Z"),
		}
	}

	first := newEvent(model.EventThreadUnreadStale)
	ok, err := repo.Publish(ctx, first, newLog())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotZero(t, first.ID)

	second := newEvent(model.EventThreadUnreadStale)
	ok, err = repo.Publish(ctx, second, newLog())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, second.ID)

	var events int64
	require.NoError(t, db.Model(&model.DomainEvent{}).Count(&events).Error)
	assert.EqualValues(t, 1, events)

	var logRow model.UnreadThreadStaleLog
	require.NoError(t, db.First(&logRow).Error)
	assert.Equal(t, first.ID, logRow.EventID)
}

func TestGetMissingEvent(t *testing.T) {
	repo := repository.NewEventRepository(repotest.Open(t))
	_, err := repo.Get(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
