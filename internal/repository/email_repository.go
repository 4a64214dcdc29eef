package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

// EmailQueueRepository 只写的邮件队列
type EmailQueueRepository interface {
	// Enqueue 以 (event_id, user_id) 幂等入队；已存在时返回 false
	Enqueue(ctx context.Context, e *model.PendingEmail) (bool, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*model.PendingEmail, error)
}

type emailQueueRepository struct{ db *gorm.DB }

func NewEmailQueueRepository(db *gorm.DB) EmailQueueRepository { return &emailQueueRepository{db: db} }

func (r *emailQueueRepository) Enqueue(ctx context.Context, e *model.PendingEmail) (bool, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = "pending"
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *emailQueueRepository) ListByEvent(ctx context.Context, eventID int64) ([]*model.PendingEmail, error) {
	var res []*model.PendingEmail
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("user_id").Find(&res).Error
	return res, err
}
