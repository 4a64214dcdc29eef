package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

// MembershipRepository 项目授权与组织成员查询
type MembershipRepository interface {
	ProjectGrantUserIDs(ctx context.Context, projectID string) ([]string, error)
	OrgOwnerIDs(ctx context.Context, orgID string) ([]string, error)
	IsOrgOwner(ctx context.Context, orgID, userID string) (bool, error)
	// ResourceOrgID / ProjectOrgID 返回空串表示不存在
	ResourceOrgID(ctx context.Context, resourceID string) (string, error)
	ProjectOrgID(ctx context.Context, projectID string) (string, error)
}

type membershipRepository struct{ db *gorm.DB }

func NewMembershipRepository(db *gorm.DB) MembershipRepository { return &membershipRepository{db: db} }

func (r *membershipRepository) ProjectGrantUserIDs(ctx context.Context, projectID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.ProjectAccessGrant{}).
		Where("project_id = ? AND user_id <> ''", projectID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *membershipRepository) OrgOwnerIDs(ctx context.Context, orgID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.OrgMember{}).
		Where("org_id = ? AND role = ?", orgID, model.OrgRoleOwner).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *membershipRepository) IsOrgOwner(ctx context.Context, orgID, userID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.OrgMember{}).
		Where("org_id = ? AND user_id = ? AND role = ?", orgID, userID, model.OrgRoleOwner).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *membershipRepository) ResourceOrgID(ctx context.Context, resourceID string) (string, error) {
	var res model.Resource
	err := r.db.WithContext(ctx).Select("id", "org_id").Where("id = ?", resourceID).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.Str(res.OrgID), nil
}

func (r *membershipRepository) ProjectOrgID(ctx context.Context, projectID string) (string, error) {
	var p model.Project
	err := r.db.WithContext(ctx).Select("id", "owner_org_id").Where("id = ?", projectID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p.OwnerOrgID, nil
}
