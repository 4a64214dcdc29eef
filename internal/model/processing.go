package model

import "time"

// ProcessingStatus 事件处理状态
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingProcessing ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

// NotificationProcessing 每个事件一行的处理记录；event_id 主键保证同一时刻只有一个处理者
type NotificationProcessing struct {
	EventID      int64            `gorm:"primaryKey;autoIncrement:false"`
	Status       ProcessingStatus `gorm:"column:processing_status;type:varchar(16);index;not null"`
	ProcessorID  string           `gorm:"type:varchar(64)"`
	RetryCount   int              `gorm:"not null;default:0"`
	ClaimedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string `gorm:"type:text"`
}

func (NotificationProcessing) TableName() string { return "notification_processing" }
