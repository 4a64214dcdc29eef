package model

import (
	"time"

	"gorm.io/datatypes"
)

// EventType 领域事件类型（封闭枚举）
type EventType string

const (
	EventDocumentUploaded          EventType = "document_uploaded"
	EventChatMessageSent           EventType = "chat_message_sent"
	EventThreadUnreadStale         EventType = "thread_unread_stale"
	EventMeetingInvited            EventType = "meeting_invited"
	EventMeetingUpdated            EventType = "meeting_updated"
	EventMeetingReminder           EventType = "meeting_reminder"
	EventResumeIncompleteNudge     EventType = "resume_incomplete_nudge"
	EventInviteAccepted            EventType = "invite_accepted"
	EventProjectAccessGranted      EventType = "project_access_granted"
	EventProjectAccessChanged      EventType = "project_access_changed"
	EventProjectAccessRevoked      EventType = "project_access_revoked"
	EventDocumentPermissionGranted EventType = "document_permission_granted"
	EventDocumentPermissionChanged EventType = "document_permission_changed"
)

// DomainEvent 上游写入的不可变事实；本服务只读（扫描任务除外，会追加新事件）
type DomainEvent struct {
	ID         int64          `gorm:"primaryKey;autoIncrement"`
	EventType  EventType      `gorm:"type:varchar(64);index;not null"`
	ActorID    *string        `gorm:"type:varchar(36)"`
	ProjectID  *string        `gorm:"type:varchar(36);index"`
	OrgID      *string        `gorm:"type:varchar(36)"`
	ResourceID *string        `gorm:"type:varchar(36)"`
	ThreadID   *string        `gorm:"type:varchar(36)"`
	MeetingID  *string        `gorm:"type:varchar(36)"`
	OccurredAt time.Time      `gorm:"index;not null"`
	Payload    datatypes.JSON `gorm:"not null"`
}

func (DomainEvent) TableName() string { return "domain_events" }

// Str 解引用可空字段，nil 返回空串
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ptr returns nil for the empty string so optional columns stay NULL.
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
