package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/internal/repository/repotest"
)

func TestPreferencesListedOldestFirst(t *testing.T) {
	db := repotest.Open(t)
	repo := repository.NewPreferenceRepository(db)

	// id 顺序与创建顺序相反
	for _, p := range []*model.UserNotificationPreference{
		{ID: "a-newer", UserID: "u1", ScopeType: model.ScopeGlobal, EventType: "*", Channel: model.ChannelAny, Status: "enabled", CreatedAt: repotest.Time("2025-02-01T00:00:00Z")},
		{ID: "z-older", UserID: "u1", ScopeType: model.ScopeGlobal, EventType: "*", Channel: model.ChannelAny, Status: model.PreferenceMuted, CreatedAt: repotest.Time("2025-01-01T00:00:00Z")},
		{ID: "other", UserID: "u2", ScopeType: model.ScopeGlobal, EventType: "*", Channel: model.ChannelAny, Status: model.PreferenceMuted, CreatedAt: repotest.Time("2024-01-01T00:00:00Z")},
	} {
		require.NoError(t, db.Create(p).Error)
	}

	prefs, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Equal(t, "z-older", prefs[0].ID)
	assert.Equal(t, "a-newer", prefs[1].ID)
}
