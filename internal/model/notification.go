package model

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType 通知种类，同时写入 payload.type 供客户端渲染
type NotificationType string

const (
	NotificationDocumentUploaded          NotificationType = "document_uploaded"
	NotificationMention                   NotificationType = "mention"
	NotificationThreadActivity            NotificationType = "thread_activity"
	NotificationMeetingInvitation         NotificationType = "meeting_invitation"
	NotificationMeetingUpdate             NotificationType = "meeting_update"
	NotificationMeetingReminder           NotificationType = "meeting_reminder"
	NotificationResumeIncompleteNudge     NotificationType = "resume_incomplete_nudge"
	NotificationInviteAccepted            NotificationType = "invite_accepted"
	NotificationProjectAccessGranted      NotificationType = "project_access_granted"
	NotificationProjectAccessChanged      NotificationType = "project_access_changed"
	NotificationProjectAccessRevoked      NotificationType = "project_access_revoked"
	NotificationDocumentPermissionGranted NotificationType = "document_permission_granted"
	NotificationDocumentPermissionChanged NotificationType = "document_permission_changed"
)

// Notification 站内通知
//
// 唯一约束:
//   - ux_notifications_user_event = (user_id, event_id)，幂等写入
//   - ux_notifications_unread_aggregate = (user_id, aggregation_key) WHERE read_at IS NULL，
//     同一线程最多一条未读聚合行（见 repository.Migrate）
type Notification struct {
	ID             string           `gorm:"primaryKey;type:varchar(36)"`
	UserID         string           `gorm:"type:varchar(36);not null;index:idx_notifications_user;uniqueIndex:ux_notifications_user_event"`
	EventID        *int64           `gorm:"uniqueIndex:ux_notifications_user_event;index:idx_notifications_event"`
	Type           NotificationType `gorm:"type:varchar(64);not null"`
	AggregationKey *string          `gorm:"type:varchar(128)"`
	AggregateCount int              `gorm:"not null;default:1"`
	LastEventID    *int64
	Title          string         `gorm:"type:text;not null"`
	Body           string         `gorm:"type:text;not null"`
	LinkURL        string         `gorm:"type:text"`
	Payload        datatypes.JSON `gorm:"not null"`
	ReadAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Notification) TableName() string { return "notifications" }

// ThreadActivityKey 线程聚合键
func ThreadActivityKey(threadID string) string {
	return string(NotificationThreadActivity) + ":" + threadID
}

// NotificationAggregateEvent 记录某事件已计入某用户的聚合行，(user_id, event_id) 唯一
type NotificationAggregateEvent struct {
	UserID         string    `gorm:"primaryKey;type:varchar(36)"`
	EventID        int64     `gorm:"primaryKey;autoIncrement:false"`
	AggregationKey string    `gorm:"type:varchar(128);not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (NotificationAggregateEvent) TableName() string { return "notification_aggregate_events" }
