package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

type DirectoryRepository interface {
	Profile(ctx context.Context, userID string) (*model.Profile, error)
	Project(ctx context.Context, projectID string) (*model.Project, error)
	Profiles(ctx context.Context, userIDs []string) ([]model.Profile, error)
}

type directoryRepository struct{ db *gorm.DB }

func NewDirectoryRepository(db *gorm.DB) DirectoryRepository { return &directoryRepository{db: db} }

func (r *directoryRepository) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *directoryRepository) Project(ctx context.Context, projectID string) (*model.Project, error) {
	var p model.Project
	err := r.db.WithContext(ctx).Where("id = ?", projectID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *directoryRepository) Profiles(ctx context.Context, userIDs []string) ([]model.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var res []model.Profile
	err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&res).Error
	return res, err
}
