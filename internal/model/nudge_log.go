package model

import "time"

// UnreadThreadStaleLog 未读线程提醒去重日志；latest_message_at 在键内，新消息到达后允许再次提醒
type UnreadThreadStaleLog struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)"`
	ThreadID        string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_stale_log_thread_user_msg"`
	UserID          string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_stale_log_thread_user_msg"`
	LatestMessageAt time.Time `gorm:"not null;uniqueIndex:ux_stale_log_thread_user_msg"`
	EventID         int64     `gorm:"not null"`
	SentAt          time.Time `gorm:"not null"`
}

func (UnreadThreadStaleLog) TableName() string { return "unread_thread_stale_log" }

// ResumeType 简历类型
type ResumeType string

const (
	ResumeProject  ResumeType = "project"
	ResumeBorrower ResumeType = "borrower"
)

// ResumeNudge 已发送的简历提醒档位；一次编辑会清空该简历的全部记录（新的活动周期）
type ResumeNudge struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)"`
	ProjectID  string     `gorm:"type:varchar(36);not null;uniqueIndex:ux_resume_nudges_tier"`
	ResumeType ResumeType `gorm:"type:varchar(16);not null;uniqueIndex:ux_resume_nudges_tier"`
	Tier       int        `gorm:"not null;uniqueIndex:ux_resume_nudges_tier"`
	EventID    int64      `gorm:"not null"`
	SentAt     time.Time  `gorm:"not null"`
}

func (ResumeNudge) TableName() string { return "resume_nudges" }

// MeetingReminderSent 会议提醒去重
type MeetingReminderSent struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	MeetingID    string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_meeting_reminder"`
	UserID       string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_meeting_reminder"`
	ReminderType string    `gorm:"type:varchar(16);not null;uniqueIndex:ux_meeting_reminder"`
	EventID      int64     `gorm:"not null"`
	CreatedAt    time.Time
}

func (MeetingReminderSent) TableName() string { return "meeting_reminders_sent" }

func (l *UnreadThreadStaleLog) LinkEvent(eventID int64) { l.EventID = eventID }

func (n *ResumeNudge) LinkEvent(eventID int64) { n.EventID = eventID }

func (m *MeetingReminderSent) LinkEvent(eventID int64) { m.EventID = eventID }
