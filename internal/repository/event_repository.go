package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

// EventLink is a dedupe row written in the same transaction as the event it
// guards; it learns the event id once the event has been inserted.
type EventLink interface {
	LinkEvent(eventID int64)
}

type EventRepository interface {
	Get(ctx context.Context, id int64) (*model.DomainEvent, error)
	// ListPending 待处理事件，按 id 升序，从 afterID 之后开始
	ListPending(ctx context.Context, since time.Time, maxRetries int, afterID int64, limit int) ([]*model.DomainEvent, error)
	Claim(ctx context.Context, eventID int64, processorID string, maxRetries int, now time.Time) (bool, error)
	MarkCompleted(ctx context.Context, eventID int64, now time.Time) error
	MarkFailed(ctx context.Context, eventID int64, reason string, now time.Time) error
	RecoverStale(ctx context.Context, claimedBefore time.Time) (int64, error)
	Processing(ctx context.Context, eventID int64) (*model.NotificationProcessing, error)
	// Publish 在一个事务内写入事件与去重行；去重行冲突时整体回滚并返回 false
	Publish(ctx context.Context, ev *model.DomainEvent, link EventLink) (bool, error)
}

type eventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) EventRepository { return &eventRepository{db: db} }

const maxErrorMessageLen = 1000

var errDuplicateLink = errors.New("dedupe row already exists")

func (r *eventRepository) Get(ctx context.Context, id int64) (*model.DomainEvent, error) {
	var ev model.DomainEvent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *eventRepository) ListPending(ctx context.Context, since time.Time, maxRetries int, afterID int64, limit int) ([]*model.DomainEvent, error) {
	var res []*model.DomainEvent
	err := r.db.WithContext(ctx).
		Table("domain_events AS e").
		Select("e.*").
		Joins("LEFT JOIN notification_processing np ON np.event_id = e.id").
		Where("np.event_id IS NULL OR np.processing_status = ? OR (np.processing_status = ? AND np.retry_count < ?)",
			model.ProcessingPending, model.ProcessingFailed, maxRetries).
		Where("e.occurred_at >= ? AND e.id > ?", since, afterID).
		Order("e.id").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *eventRepository) Claim(ctx context.Context, eventID int64, processorID string, maxRetries int, now time.Time) (bool, error) {
	db := r.db.WithContext(ctx)
	rec := &model.NotificationProcessing{
		EventID:     eventID,
		Status:      model.ProcessingProcessing,
		ProcessorID: processorID,
		ClaimedAt:   &now,
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// 已有记录：仅 pending 或未超重试上限的 failed 可以被重新认领
	res = db.Model(&model.NotificationProcessing{}).
		Where("event_id = ? AND (processing_status = ? OR (processing_status = ? AND retry_count < ?))",
			eventID, model.ProcessingPending, model.ProcessingFailed, maxRetries).
		Updates(map[string]any{
			"processing_status": model.ProcessingProcessing,
			"processor_id":      processorID,
			"claimed_at":        now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *eventRepository) MarkCompleted(ctx context.Context, eventID int64, now time.Time) error {
	return r.db.WithContext(ctx).Model(&model.NotificationProcessing{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"processing_status": model.ProcessingCompleted,
			"completed_at":      now,
			"error_message":     "",
		}).Error
}

func (r *eventRepository) MarkFailed(ctx context.Context, eventID int64, reason string, now time.Time) error {
	if len(reason) > maxErrorMessageLen {
		reason = reason[:maxErrorMessageLen]
	}
	return r.db.WithContext(ctx).Model(&model.NotificationProcessing{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"processing_status": model.ProcessingFailed,
			"completed_at":      now,
			"error_message":     reason,
			"retry_count":       gorm.Expr("retry_count + 1"),
		}).Error
}

func (r *eventRepository) RecoverStale(ctx context.Context, claimedBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.NotificationProcessing{}).
		Where("processing_status = ? AND claimed_at < ?", model.ProcessingProcessing, claimedBefore).
		Update("processing_status", model.ProcessingPending)
	return res.RowsAffected, res.Error
}

func (r *eventRepository) Processing(ctx context.Context, eventID int64) (*model.NotificationProcessing, error) {
	var rec model.NotificationProcessing
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *eventRepository) Publish(ctx context.Context, ev *model.DomainEvent, link EventLink) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ev).Error; err != nil {
			return err
		}
		if link == nil {
			return nil
		}
		link.LinkEvent(ev.ID)
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(link)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errDuplicateLink
		}
		return nil
	})
	if errors.Is(err, errDuplicateLink) {
		ev.ID = 0
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
