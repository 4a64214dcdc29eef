package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

type NotificationRepository interface {
	// ExistingRecipients 已为该事件写过通知的用户
	ExistingRecipients(ctx context.Context, eventID int64) ([]string, error)
	// Create 幂等插入；唯一键冲突时返回 false 且不报错
	Create(ctx context.Context, n *model.Notification) (bool, error)
	// FoldAggregate 把 fresh.EventID 计入该用户 fresh.AggregationKey 的未读聚合行，
	// 没有未读行时插入 fresh。每个 (user, event) 只计一次，与到达顺序无关。
	FoldAggregate(ctx context.Context, fresh *model.Notification, bodySuffix string, now time.Time) (FoldOutcome, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Notification, error)
	// MarkRead 仅作用于该用户自己的未读行；返回是否有行被更新
	MarkRead(ctx context.Context, userID, id string, now time.Time) (bool, error)
}

// FoldOutcome FoldAggregate 的结果
type FoldOutcome int

const (
	FoldDuplicate FoldOutcome = iota
	FoldUpdated
	FoldCreated
)

// ErrAggregateContended 两次尝试后仍未能计入未读行；事务已回滚，调用方稍后重试
var ErrAggregateContended = errors.New("aggregate row contended")

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) ExistingRecipients(ctx context.Context, eventID int64) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("event_id = ?", eventID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	// 并入别的事件聚合行的用户同样算已通知
	var folded []string
	err = r.db.WithContext(ctx).
		Model(&model.NotificationAggregateEvent{}).
		Where("event_id = ?", eventID).
		Pluck("user_id", &folded).Error
	if err != nil {
		return nil, err
	}
	return append(ids, folded...), nil
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) (bool, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *notificationRepository) FoldAggregate(ctx context.Context, fresh *model.Notification, bodySuffix string, now time.Time) (FoldOutcome, error) {
	if fresh.EventID == nil || fresh.AggregationKey == nil {
		return FoldDuplicate, errors.New("aggregate row needs event_id and aggregation_key")
	}
	if fresh.ID == "" {
		fresh.ID = uuid.New().String()
	}
	userID, eventID, key := fresh.UserID, *fresh.EventID, *fresh.AggregationKey

	out := FoldDuplicate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.NotificationAggregateEvent{
			UserID:         userID,
			EventID:        eventID,
			AggregationKey: key,
			CreatedAt:      now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		for attempt := 0; attempt < 2; attempt++ {
			bumped, err := bumpUnread(tx, userID, key, eventID, bodySuffix, now)
			if err != nil {
				return err
			}
			if bumped {
				out = FoldUpdated
				return nil
			}

			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(fresh)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				out = FoldCreated
				return nil
			}

			// 冲突在 (user, event) 上：该事件早已有自己的行
			var n int64
			if err := tx.Model(&model.Notification{}).
				Where("user_id = ? AND event_id = ?", userID, eventID).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return nil
			}
			// 否则是并发插入的未读行，再更新一次
		}
		return ErrAggregateContended
	})
	if err != nil {
		return FoldDuplicate, err
	}
	return out, nil
}

// bumpUnread 计数加一并同步 body 与 payload.count。SET 右侧读的都是旧值。
func bumpUnread(tx *gorm.DB, userID, key string, eventID int64, bodySuffix string, now time.Time) (bool, error) {
	// created_at 同时是列表排序键，一并前移
	res := tx.Model(&model.Notification{}).
		Where("user_id = ? AND aggregation_key = ? AND read_at IS NULL", userID, key).
		Updates(map[string]any{
			"aggregate_count": gorm.Expr("aggregate_count + 1"),
			"body":            gorm.Expr("CAST(aggregate_count + 1 AS TEXT) || ?", bodySuffix),
			"payload":         payloadCount(tx),
			"last_event_id":   gorm.Expr("CASE WHEN last_event_id IS NULL OR last_event_id < ? THEN ? ELSE last_event_id END", eventID, eventID),
			"created_at":      now,
			"updated_at":      now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// payloadCount 把 payload.count 设为新计数；路径写法随方言不同
func payloadCount(tx *gorm.DB) *datatypes.JSONSetExpression {
	if tx.Dialector.Name() == "postgres" {
		return datatypes.JSONSet("payload").Set("{count}", gorm.Expr("to_jsonb(aggregate_count + 1)"))
	}
	return datatypes.JSONSet("payload").Set("count", gorm.Expr("aggregate_count + 1"))
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Notification, error) {
	var res []*model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id").
		Offset(offset).
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", now)
	return res.RowsAffected == 1, res.Error
}
