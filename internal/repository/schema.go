package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

// ErrNotFound is returned by lookups whose absence is an outcome, not a fault.
var ErrNotFound = errors.New("record not found")

// Migrate 初始化全部表结构（本地/测试用；生产由上游迁移管理）
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.DomainEvent{},
		&model.NotificationProcessing{},
		&model.Notification{},
		&model.NotificationAggregateEvent{},
		&model.UserNotificationPreference{},
		&model.PendingEmail{},
		&model.UnreadThreadStaleLog{},
		&model.ResumeNudge{},
		&model.MeetingReminderSent{},
		&model.Project{},
		&model.Profile{},
		&model.OrgMember{},
		&model.ProjectAccessGrant{},
		&model.Resource{},
		&model.ChatThread{},
		&model.ChatThreadParticipant{},
		&model.ProjectMessage{},
		&model.ProjectWorkspaceActivity{},
		&model.ProjectResume{},
		&model.BorrowerResume{},
		&model.Meeting{},
		&model.MeetingParticipant{},
	); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	// 部分唯一索引：每个 (user, 聚合键) 最多一条未读行。postgres 与 sqlite 语法一致。
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_notifications_unread_aggregate
		ON notifications (user_id, aggregation_key)
		WHERE read_at IS NULL AND aggregation_key IS NOT NULL`).Error; err != nil {
		return fmt.Errorf("failed to create aggregate index: %w", err)
	}
	return nil
}
