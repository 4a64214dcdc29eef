package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/internal/repository/repotest"
)

func TestInboxListAndMarkRead(t *testing.T) {
	db := repotest.Open(t)
	repo := repository.NewNotificationRepository(db)
	inbox := NewInboxService(repo)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		id := i
		ok, err := repo.Create(ctx, &model.Notification{
			UserID: "u1", EventID: &id, Type: model.NotificationMention,
			Title: fmt.Sprintf("n%d", i), Body: "b", Payload: []byte(`{}`),
		})
		require.NoError(t, err)
		require.True(t, ok)
	}

	page1, err := inbox.List(ctx, "u1", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	page2, err := inbox.List(ctx, "u1", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)

	// 只能标记自己的通知
	assert.ErrorIs(t, inbox.MarkRead(ctx, "u2", page1[0].ID), ErrNotificationNotFound)
	require.NoError(t, inbox.MarkRead(ctx, "u1", page1[0].ID))
	assert.ErrorIs(t, inbox.MarkRead(ctx, "u1", page1[0].ID), ErrNotificationNotFound)
}
