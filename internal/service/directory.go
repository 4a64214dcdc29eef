package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

const (
	fallbackActorName   = "Someone"
	fallbackProjectName = "Project"
)

// Directory resolves display names for notification text. Lookups never
// fail: a miss or an error yields the generic fallback. Hits are cached in
// Redis when a client is configured.
type Directory struct {
	repo  repository.DirectoryRepository
	cache *redis.Client
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewDirectory(repo repository.DirectoryRepository, cache *redis.Client, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Directory{repo: repo, cache: cache, ttl: ttl}
}

// ProfileName returns full_name, then email, then "Someone".
func (d *Directory) ProfileName(ctx context.Context, userID string) string {
	if userID == "" {
		return fallbackActorName
	}
	key := "directory:profile:" + userID
	if name, ok := d.cached(ctx, key); ok {
		return name
	}

	p, err := d.repo.Profile(ctx, userID)
	if err != nil {
		d.logMiss("profile", userID, err)
		return fallbackActorName
	}
	name := model.Str(p.FullName)
	if name == "" {
		name = p.Email
	}
	if name == "" {
		return fallbackActorName
	}
	d.store(ctx, key, name)
	return name
}

// ProjectName returns the project's name or "Project".
func (d *Directory) ProjectName(ctx context.Context, projectID string) string {
	if projectID == "" {
		return fallbackProjectName
	}
	key := "directory:project:" + projectID
	if name, ok := d.cached(ctx, key); ok {
		return name
	}

	p, err := d.repo.Project(ctx, projectID)
	if err != nil {
		d.logMiss("project", projectID, err)
		return fallbackProjectName
	}
	if p.Name == "" {
		return fallbackProjectName
	}
	d.store(ctx, key, p.Name)
	return p.Name
}

// Stats returns cache hits and misses since start.
func (d *Directory) Stats() (hits, misses int64) {
	return d.hits.Load(), d.misses.Load()
}

func (d *Directory) cached(ctx context.Context, key string) (string, bool) {
	if d.cache == nil {
		return "", false
	}
	name, err := d.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Debug("directory cache read failed", zap.String("key", key), zap.Error(err))
		}
		d.misses.Add(1)
		return "", false
	}
	d.hits.Add(1)
	return name, true
}

func (d *Directory) store(ctx context.Context, key, name string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(ctx, key, name, d.ttl).Err(); err != nil {
		logger.Debug("directory cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (d *Directory) logMiss(kind, id string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		return
	}
	logger.Debug("directory lookup failed", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
}
