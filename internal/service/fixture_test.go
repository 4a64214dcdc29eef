package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/notify-fanout/config"
	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository/repotest"
)

var errCheckerDown = errors.New("permission service unavailable")

type fakeChecker struct {
	allow map[string]bool
	// fail 中的用户返回错误，即使 allow 为 true
	fail map[string]bool
}

func (c fakeChecker) CanView(_ context.Context, userID, _ string) (bool, error) {
	if c.fail[userID] {
		return c.allow[userID], errCheckerDown
	}
	return c.allow[userID], nil
}

type fixture struct {
	db  *gorm.DB
	svc *Services
}

// newFixture wires every service over a fresh sqlite database. Sweeps
// dispatch inline unless handoff says otherwise.
func newFixture(t *testing.T, checker fakeChecker, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	db := repotest.Open(t)
	return &fixture{db: db, svc: Build(db, checker, nil, cfg, "test-worker", nil)}
}

func (f *fixture) seed(t *testing.T, rows ...any) {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, f.db.Create(r).Error)
	}
}

func (f *fixture) event(t *testing.T, typ model.EventType, ev model.DomainEvent, payload any) *model.DomainEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	ev.EventType = typ
	ev.Payload = raw
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = repotest.Time("2025-03-01T12:00:00Z")
	}
	require.NoError(t, f.db.Create(&ev).Error)
	return &ev
}

func (f *fixture) notifications(t *testing.T, userID string) []*model.Notification {
	t.Helper()
	var rows []*model.Notification
	require.NoError(t, f.db.Where("user_id = ?", userID).Order("created_at, id").Find(&rows).Error)
	return rows
}

func (f *fixture) count(t *testing.T, m any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(m)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

var errDiskFull = errors.New("disk full")

// failCreates makes every insert whose destination matches pick fail with
// errDiskFull until the returned func is called.
func (f *fixture) failCreates(t *testing.T, name string, pick func(dest any) bool) func() {
	t.Helper()
	var on atomic.Bool
	on.Store(true)
	err := f.db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if on.Load() && pick(tx.Statement.Dest) {
			_ = tx.AddError(errDiskFull)
		}
	})
	require.NoError(t, err)
	return func() { on.Store(false) }
}

func at(s string) time.Time { return repotest.Time(s) }
