package repository_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/internal/repository/repotest"
)

func int64Ptr(v int64) *int64 { return &v }

func aggregateRow(userID, threadID string, eventID int64) *model.Notification {
	return &model.Notification{
		UserID:         userID,
		EventID:        int64Ptr(eventID),
		Type:           model.NotificationThreadActivity,
		AggregationKey: model.Ptr(model.ThreadActivityKey(threadID)),
		AggregateCount: 1,
		LastEventID:    int64Ptr(eventID),
		Title:          "New messages in Alpha",
		Body:           "1 new messages in #general",
		Payload:        datatypes.JSON(`{"type":"thread_activity","count":1}`),
	}
}

func TestCreateIsIdempotentPerUserEvent(t *testing.T) {
	repo := repository.NewNotificationRepository(repotest.Open(t))
	ctx := context.Background()

	n := &model.Notification{UserID: "u1", EventID: int64Ptr(7), Type: model.NotificationMention, Title: "t", Body: "b", Payload: datatypes.JSON(`{}`)}
	ok, err := repo.Create(ctx, n)
	require.NoError(t, err)
	assert.True(t, ok)

	dup := &model.Notification{UserID: "u1", EventID: int64Ptr(7), Type: model.NotificationMention, Title: "t", Body: "b", Payload: datatypes.JSON(`{}`)}
	ok, err = repo.Create(ctx, dup)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := repo.ExistingRecipients(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
}

func foldCount(t *testing.T, n *model.Notification) int {
	t.Helper()
	var p struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(n.Payload, &p))
	return p.Count
}

func TestFoldAggregate(t *testing.T) {
	repo := repository.NewNotificationRepository(repotest.Open(t))
	ctx := context.Background()
	now := repotest.Time("2025-01-01T10:00:00Z")
	const suffix = " new messages in #general"

	out, err := repo.FoldAggregate(ctx, aggregateRow("u1", "t1", 5), suffix, now)
	require.NoError(t, err)
	assert.Equal(t, repository.FoldCreated, out)

	// 较早的事件晚到，同样计数
	out, err = repo.FoldAggregate(ctx, aggregateRow("u1", "t1", 3), suffix, now)
	require.NoError(t, err)
	assert.Equal(t, repository.FoldUpdated, out)

	for _, id := range []int64{5, 3} {
		out, err = repo.FoldAggregate(ctx, aggregateRow("u1", "t1", id), suffix, now)
		require.NoError(t, err)
		assert.Equal(t, repository.FoldDuplicate, out, "event %d", id)
	}

	rows, err := repo.ListByUser(ctx, "u1", 0, 20)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].AggregateCount)
	assert.Equal(t, "2 new messages in #general", rows[0].Body)
	assert.Equal(t, 2, foldCount(t, rows[0]))
	assert.EqualValues(t, 5, *rows[0].LastEventID)

	ids, err := repo.ExistingRecipients(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)

	read, err := repo.MarkRead(ctx, "u1", rows[0].ID, now)
	require.NoError(t, err)
	require.True(t, read)

	// 已读后重放已计入的事件不会开新行
	out, err = repo.FoldAggregate(ctx, aggregateRow("u1", "t1", 3), suffix, now)
	require.NoError(t, err)
	assert.Equal(t, repository.FoldDuplicate, out)

	out, err = repo.FoldAggregate(ctx, aggregateRow("u1", "t1", 8), suffix, now)
	require.NoError(t, err)
	assert.Equal(t, repository.FoldCreated, out, "read rows are never reopened")

	rows, err = repo.ListByUser(ctx, "u1", 0, 20)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestFoldAggregateExistingEventRow(t *testing.T) {
	db := repotest.Open(t)
	repo := repository.NewNotificationRepository(db)
	ctx := context.Background()
	now := repotest.Time("2025-01-01T10:00:00Z")

	// 行早于折叠记录存在且已读：视为已通知
	row := aggregateRow("u1", "t1", 4)
	ok, err := repo.Create(ctx, row)
	require.NoError(t, err)
	require.True(t, ok)
	read, err := repo.MarkRead(ctx, "u1", row.ID, now)
	require.NoError(t, err)
	require.True(t, read)

	out, err := repo.FoldAggregate(ctx, aggregateRow("u1", "t1", 4), " new", now)
	require.NoError(t, err)
	assert.Equal(t, repository.FoldDuplicate, out)

	var n int64
	require.NoError(t, db.Model(&model.Notification{}).Where("user_id = ?", "u1").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestSingleUnreadAggregatePerThread(t *testing.T) {
	repo := repository.NewNotificationRepository(repotest.Open(t))
	ctx := context.Background()
	now := repotest.Time("2025-01-01T10:00:00Z")

	first := aggregateRow("u1", "t1", 1)
	ok, err := repo.Create(ctx, first)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Create(ctx, aggregateRow("u1", "t1", 2))
	require.NoError(t, err)
	assert.False(t, ok, "second unread aggregate must conflict")

	read, err := repo.MarkRead(ctx, "u2", first.ID, now)
	require.NoError(t, err)
	require.False(t, read, "other users cannot mark it read")
	read, err = repo.MarkRead(ctx, "u1", first.ID, now)
	require.NoError(t, err)
	require.True(t, read)
	ok, err = repo.Create(ctx, aggregateRow("u1", "t1", 3))
	require.NoError(t, err)
	assert.True(t, ok, "a fresh row starts once the old one is read")
}
