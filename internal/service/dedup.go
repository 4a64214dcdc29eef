package service

import (
	"context"

	"github.com/d60-Lab/notify-fanout/internal/repository"
)

// DedupGuard 读取已写入的通知，避免至少一次投递下的重复写
type DedupGuard struct {
	notifications repository.NotificationRepository
}

func NewDedupGuard(notifications repository.NotificationRepository) *DedupGuard {
	return &DedupGuard{notifications: notifications}
}

// AlreadyNotified returns the users that already hold a row for eventID.
func (g *DedupGuard) AlreadyNotified(ctx context.Context, eventID int64) (map[string]struct{}, error) {
	ids, err := g.notifications.ExistingRecipients(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// Remaining is candidates minus notified, order preserved.
func Remaining(candidates []string, notified map[string]struct{}) []string {
	out := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if _, ok := notified[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
