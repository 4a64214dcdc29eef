package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/internal/repository/repotest"
)

func TestDirectoryFallbacks(t *testing.T) {
	db := repotest.Open(t)
	require.NoError(t, db.Create(&model.Profile{ID: "named", FullName: model.Ptr("Dana Lee"), Email: "dana@example.com"}).Error)
	require.NoError(t, db.Create(&model.Profile{ID: "email-only", Email: "eli@example.com"}).Error)
	require.NoError(t, db.Create(&model.Project{ID: "p1", Name: "Alpha Tower"}).Error)

	dir := NewDirectory(repository.NewDirectoryRepository(db), nil, 0)
	ctx := context.Background()

	assert.Equal(t, "Dana Lee", dir.ProfileName(ctx, "named"))
	assert.Equal(t, "eli@example.com", dir.ProfileName(ctx, "email-only"))
	assert.Equal(t, "Someone", dir.ProfileName(ctx, "missing"))
	assert.Equal(t, "Someone", dir.ProfileName(ctx, ""))
	assert.Equal(t, "Alpha Tower", dir.ProjectName(ctx, "p1"))
	assert.Equal(t, "Project", dir.ProjectName(ctx, "missing"))
}

func TestDirectoryCachesInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := repotest.Open(t)
	require.NoError(t, db.Create(&model.Project{ID: "p1", Name: "Alpha Tower"}).Error)

	dir := NewDirectory(repository.NewDirectoryRepository(db), client, time.Minute)
	ctx := context.Background()

	assert.Equal(t, "Alpha Tower", dir.ProjectName(ctx, "p1"))
	cached, err := mr.Get("directory:project:p1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Tower", cached)

	// 缓存命中时不再读库
	require.NoError(t, db.Model(&model.Project{}).Where("id = ?", "p1").Update("name", "Renamed").Error)
	assert.Equal(t, "Alpha Tower", dir.ProjectName(ctx, "p1"))
	hits, misses := dir.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, "Renamed", dir.ProjectName(ctx, "p1"))

	// 回退值不写缓存
	assert.Equal(t, "Project", dir.ProjectName(ctx, "missing"))
	assert.False(t, mr.Exists("directory:project:missing"))
}
