package service

import (
	"context"
	"errors"
	"time"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
)

var ErrNotificationNotFound = errors.New("notification not found")

// InboxService 用户站内通知列表与已读
type InboxService interface {
	List(ctx context.Context, userID string, page, pageSize int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

type inboxService struct {
	notifications repository.NotificationRepository
	now           func() time.Time
}

func NewInboxService(notifications repository.NotificationRepository) InboxService {
	return &inboxService{notifications: notifications, now: func() time.Time { return time.Now().UTC() }}
}

func (s *inboxService) List(ctx context.Context, userID string, page, pageSize int) ([]*model.Notification, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.notifications.ListByUser(ctx, userID, offset, pageSize)
}

// MarkRead 已读后，同一线程的下一条消息会开启新的聚合行
func (s *inboxService) MarkRead(ctx context.Context, userID, notificationID string) error {
	ok, err := s.notifications.MarkRead(ctx, userID, notificationID, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}
