package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

type PreferenceRepository interface {
	// ListByUser 按 created_at 升序（同一时刻按 id），ResolveMuted 的平局取先建的行
	ListByUser(ctx context.Context, userID string) ([]model.UserNotificationPreference, error)
}

type preferenceRepository struct{ db *gorm.DB }

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository { return &preferenceRepository{db: db} }

func (r *preferenceRepository) ListByUser(ctx context.Context, userID string) ([]model.UserNotificationPreference, error) {
	var res []model.UserNotificationPreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at, id").Find(&res).Error
	return res, err
}
