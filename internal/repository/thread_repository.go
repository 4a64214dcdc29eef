package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

type ThreadRepository interface {
	Get(ctx context.Context, threadID string) (*model.ChatThread, error)
	List(ctx context.Context, offset, limit int) ([]*model.ChatThread, error)
	Participants(ctx context.Context, threadID string) ([]*model.ChatThreadParticipant, error)
	LatestMessage(ctx context.Context, threadID string) (*model.ProjectMessage, error)
	CountMessagesAfter(ctx context.Context, threadID string, after time.Time) (int64, error)
	StaleLogExists(ctx context.Context, threadID, userID string, latestMessageAt time.Time) (bool, error)
}

type threadRepository struct{ db *gorm.DB }

func NewThreadRepository(db *gorm.DB) ThreadRepository { return &threadRepository{db: db} }

func (r *threadRepository) Get(ctx context.Context, threadID string) (*model.ChatThread, error) {
	var th model.ChatThread
	err := r.db.WithContext(ctx).Where("id = ?", threadID).First(&th).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &th, nil
}

func (r *threadRepository) List(ctx context.Context, offset, limit int) ([]*model.ChatThread, error) {
	var res []*model.ChatThread
	err := r.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *threadRepository) Participants(ctx context.Context, threadID string) ([]*model.ChatThreadParticipant, error) {
	var res []*model.ChatThreadParticipant
	err := r.db.WithContext(ctx).Where("thread_id = ?", threadID).Order("user_id").Find(&res).Error
	return res, err
}

func (r *threadRepository) LatestMessage(ctx context.Context, threadID string) (*model.ProjectMessage, error) {
	var msg model.ProjectMessage
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *threadRepository) CountMessagesAfter(ctx context.Context, threadID string, after time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.ProjectMessage{}).
		Where("thread_id = ? AND created_at > ?", threadID, after).
		Count(&cnt).Error
	return cnt, err
}

func (r *threadRepository) StaleLogExists(ctx context.Context, threadID, userID string, latestMessageAt time.Time) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.UnreadThreadStaleLog{}).
		Where("thread_id = ? AND user_id = ? AND latest_message_at = ?", threadID, userID, latestMessageAt).
		Count(&cnt).Error
	return cnt > 0, err
}
