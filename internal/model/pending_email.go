package model

import (
	"time"

	"gorm.io/datatypes"
)

// DeliveryType 邮件投递方式
type DeliveryType string

const (
	DeliveryImmediate  DeliveryType = "immediate"
	DeliveryAggregated DeliveryType = "aggregated"
)

// PendingEmail 邮件队列行；本服务只生产，渲染与发送由邮件服务完成
type PendingEmail struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)"`
	UserID       string         `gorm:"type:varchar(36);not null;uniqueIndex:ux_pending_emails_event_user"`
	EventID      int64          `gorm:"not null;uniqueIndex:ux_pending_emails_event_user"`
	EventType    EventType      `gorm:"type:varchar(64);not null"`
	DeliveryType DeliveryType   `gorm:"type:varchar(16);not null"`
	ProjectID    *string        `gorm:"type:varchar(36)"`
	ProjectName  *string        `gorm:"type:text"`
	Subject      string         `gorm:"type:text;not null"`
	BodyData     datatypes.JSON `gorm:"not null"`
	Status       string         `gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt    time.Time
}

func (PendingEmail) TableName() string { return "pending_emails" }
