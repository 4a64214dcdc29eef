package service

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/d60-Lab/notify-fanout/internal/event"
	"github.com/d60-Lab/notify-fanout/internal/model"
)

// 通知 payload 与邮件 body_data 的结构，客户端与邮件模板按 type 渲染

type threadPayload struct {
	Type        model.NotificationType `json:"type"`
	ThreadID    string                 `json:"thread_id"`
	ThreadName  string                 `json:"thread_name"`
	ProjectName string                 `json:"project_name"`
	// Count 聚合行的未读条数，与 aggregate_count 同步
	Count int `json:"count,omitempty"`
}

type documentPayload struct {
	Type         model.NotificationType `json:"type,omitempty"`
	FileName     string                 `json:"file_name"`
	ProjectName  string                 `json:"project_name"`
	UploaderName string                 `json:"uploader_name,omitempty"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	LinkURL      string                 `json:"link_url,omitempty"`
}

type staleThreadEmail struct {
	ThreadID    string `json:"thread_id"`
	ThreadTopic string `json:"thread_topic"`
	UnreadCount int    `json:"unread_count"`
	ProjectName string `json:"project_name"`
	LinkURL     string `json:"link_url"`
}

type meetingPayload struct {
	Type            model.NotificationType `json:"type"`
	MeetingID       string                 `json:"meeting_id"`
	MeetingTitle    string                 `json:"meeting_title"`
	StartTime       string                 `json:"start_time,omitempty"`
	MeetingLink     string                 `json:"meeting_link,omitempty"`
	OrganizerID     string                 `json:"organizer_id,omitempty"`
	OrganizerName   string                 `json:"organizer_name,omitempty"`
	ProjectID       string                 `json:"project_id,omitempty"`
	ProjectName     string                 `json:"project_name,omitempty"`
	ReminderMinutes int                    `json:"reminder_minutes,omitempty"`
	Changes         *event.MeetingChanges  `json:"changes,omitempty"`
}

type resumeNudgePayload struct {
	Type              model.NotificationType `json:"type,omitempty"`
	ResumeType        model.ResumeType       `json:"resume_type"`
	ResumeTypeLabel   string                 `json:"resume_type_label,omitempty"`
	CompletionPercent float64                `json:"completion_percent"`
	NudgeTier         int                    `json:"nudge_tier"`
	ProjectID         string                 `json:"project_id,omitempty"`
	ProjectName       string                 `json:"project_name"`
	LinkURL           string                 `json:"link_url,omitempty"`
}

type invitePayload struct {
	Type           model.NotificationType `json:"type,omitempty"`
	OrgID          string                 `json:"org_id"`
	OrgName        string                 `json:"org_name"`
	NewMemberID    string                 `json:"new_member_id"`
	NewMemberName  string                 `json:"new_member_name"`
	NewMemberEmail string                 `json:"new_member_email,omitempty"`
	LinkURL        string                 `json:"link_url,omitempty"`
}

type accessPayload struct {
	Type          model.NotificationType `json:"type,omitempty"`
	ProjectID     string                 `json:"project_id"`
	ProjectName   string                 `json:"project_name"`
	ResourceID    string                 `json:"resource_id,omitempty"`
	ResourceName  string                 `json:"resource_name,omitempty"`
	OldPermission string                 `json:"old_permission,omitempty"`
	NewPermission string                 `json:"new_permission,omitempty"`
	LinkURL       string                 `json:"link_url,omitempty"`
}

// jsonOf marshals the payload structs above; none of them can fail to encode.
func jsonOf(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON(`{}`)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON(`{}`)
	}
	return datatypes.JSON(b)
}
