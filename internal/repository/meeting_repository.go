package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

type MeetingRepository interface {
	// ParticipantIDs 会议参与者，排除 excludeUserID（通常是组织者）
	ParticipantIDs(ctx context.Context, meetingID, excludeUserID string) ([]string, error)
	StartingBetween(ctx context.Context, from, to time.Time) ([]*model.Meeting, error)
	ReminderSent(ctx context.Context, meetingID, userID, reminderType string) (bool, error)
}

type meetingRepository struct{ db *gorm.DB }

func NewMeetingRepository(db *gorm.DB) MeetingRepository { return &meetingRepository{db: db} }

func (r *meetingRepository) ParticipantIDs(ctx context.Context, meetingID, excludeUserID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.MeetingParticipant{}).
		Where("meeting_id = ? AND user_id <> ?", meetingID, excludeUserID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *meetingRepository) StartingBetween(ctx context.Context, from, to time.Time) ([]*model.Meeting, error) {
	var res []*model.Meeting
	err := r.db.WithContext(ctx).
		Where("start_time > ? AND start_time <= ? AND status <> ?", from, to, "cancelled").
		Order("start_time").
		Find(&res).Error
	return res, err
}

func (r *meetingRepository) ReminderSent(ctx context.Context, meetingID, userID, reminderType string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.MeetingReminderSent{}).
		Where("meeting_id = ? AND user_id = ? AND reminder_type = ?", meetingID, userID, reminderType).
		Count(&cnt).Error
	return cnt > 0, err
}
