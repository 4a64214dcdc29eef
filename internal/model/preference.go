package model

import "time"

// ScopeType 偏好作用域
type ScopeType string

const (
	ScopeThread  ScopeType = "thread"
	ScopeProject ScopeType = "project"
	ScopeGlobal  ScopeType = "global"
)

// Channel 投递渠道
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelAny   Channel = "*"
)

// Wildcard matches any event type.
const Wildcard = "*"

// PreferenceMuted 是唯一有意义的状态；其它取值一律视为允许
const PreferenceMuted = "muted"

// UserNotificationPreference 用户通知偏好（由设置页维护，本服务只读）
type UserNotificationPreference struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);index;not null"`
	ScopeType ScopeType `gorm:"type:varchar(16);not null"`
	ScopeID   string    `gorm:"type:varchar(36)"`
	EventType string    `gorm:"type:varchar(64);not null"`
	Channel   Channel   `gorm:"type:varchar(16);not null"`
	Status    string    `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time
}

func (UserNotificationPreference) TableName() string { return "user_notification_preferences" }
