package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

type ResumeRepository interface {
	ListProjects(ctx context.Context, offset, limit int) ([]*model.Project, error)
	// Completeness 当前版本的完成度；无简历时 found=false
	Completeness(ctx context.Context, projectID string, resumeType model.ResumeType) (pct float64, found bool, err error)
	WorkspaceActivity(ctx context.Context, projectID string) ([]*model.ProjectWorkspaceActivity, error)
	Nudges(ctx context.Context, projectID string, resumeType model.ResumeType) ([]*model.ResumeNudge, error)
	DeleteNudgesSentBefore(ctx context.Context, projectID string, resumeType model.ResumeType, before time.Time) (int64, error)
	// RecordEdit 记录一次简历编辑并清空该简历已发送的提醒（开启新的活动周期）
	RecordEdit(ctx context.Context, projectID, userID string, resumeType model.ResumeType, step string, at time.Time) (int64, error)
}

type resumeRepository struct{ db *gorm.DB }

func NewResumeRepository(db *gorm.DB) ResumeRepository { return &resumeRepository{db: db} }

func (r *resumeRepository) ListProjects(ctx context.Context, offset, limit int) ([]*model.Project, error) {
	var res []*model.Project
	err := r.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *resumeRepository) Completeness(ctx context.Context, projectID string, resumeType model.ResumeType) (float64, bool, error) {
	resourceType, table := model.ResourceProjectResume, "project_resumes"
	if resumeType == model.ResumeBorrower {
		resourceType, table = model.ResourceBorrowerResume, "borrower_resumes"
	}
	db := r.db.WithContext(ctx)

	type row struct{ CompletenessPercent float64 }
	var out []row

	// 优先 resources.current_version_id 指向的版本，否则取最新一版
	var res model.Resource
	err := db.Where("project_id = ? AND resource_type = ?", projectID, resourceType).First(&res).Error
	switch {
	case err == nil && res.CurrentVersionID != nil:
		err = db.Table(table).Select("completeness_percent").
			Where("id = ?", *res.CurrentVersionID).Limit(1).Scan(&out).Error
	case err == nil || errors.Is(err, gorm.ErrRecordNotFound):
		err = db.Table(table).Select("completeness_percent").
			Where("project_id = ?", projectID).Order("created_at DESC").Limit(1).Scan(&out).Error
	}
	if err != nil {
		return 0, false, err
	}
	if len(out) == 0 {
		return 0, false, nil
	}
	return out[0].CompletenessPercent, true, nil
}

func (r *resumeRepository) WorkspaceActivity(ctx context.Context, projectID string) ([]*model.ProjectWorkspaceActivity, error) {
	var res []*model.ProjectWorkspaceActivity
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("user_id").Find(&res).Error
	return res, err
}

func (r *resumeRepository) Nudges(ctx context.Context, projectID string, resumeType model.ResumeType) ([]*model.ResumeNudge, error) {
	var res []*model.ResumeNudge
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND resume_type = ?", projectID, resumeType).
		Order("tier").
		Find(&res).Error
	return res, err
}

func (r *resumeRepository) DeleteNudgesSentBefore(ctx context.Context, projectID string, resumeType model.ResumeType, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("project_id = ? AND resume_type = ? AND sent_at < ?", projectID, resumeType, before).
		Delete(&model.ResumeNudge{})
	return res.RowsAffected, res.Error
}

func (r *resumeRepository) RecordEdit(ctx context.Context, projectID, userID string, resumeType model.ResumeType, step string, at time.Time) (int64, error) {
	column := "last_project_resume_edit_at"
	activity := &model.ProjectWorkspaceActivity{ProjectID: projectID, UserID: userID, LastStep: model.Ptr(step)}
	if resumeType == model.ResumeBorrower {
		column = "last_borrower_resume_edit_at"
		activity.LastBorrowerResumeEditAt = &at
	} else {
		activity.LastProjectResumeEditAt = &at
	}
	updates := []string{column}
	if step != "" {
		updates = append(updates, "last_step")
	}

	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(updates),
		}).Create(activity).Error; err != nil {
			return err
		}
		res := tx.Where("project_id = ? AND resume_type = ?", projectID, resumeType).Delete(&model.ResumeNudge{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
