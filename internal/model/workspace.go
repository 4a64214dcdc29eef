package model

import "time"

// 以下为上游业务表，本服务只读（workspace activity 除外）。

type Project struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Name       string `gorm:"type:text"`
	OwnerOrgID string `gorm:"type:varchar(36);index"`
	CreatedAt  time.Time
}

func (Project) TableName() string { return "projects" }

type Profile struct {
	ID       string  `gorm:"primaryKey;type:varchar(36)"`
	FullName *string `gorm:"type:text"`
	Email    string  `gorm:"type:text"`
}

func (Profile) TableName() string { return "profiles" }

const OrgRoleOwner = "owner"

type OrgMember struct {
	OrgID  string `gorm:"primaryKey;type:varchar(36)"`
	UserID string `gorm:"primaryKey;type:varchar(36)"`
	Role   string `gorm:"type:varchar(16);index"`
}

func (OrgMember) TableName() string { return "org_members" }

type ProjectAccessGrant struct {
	ProjectID  string `gorm:"primaryKey;type:varchar(36)"`
	UserID     string `gorm:"primaryKey;type:varchar(36)"`
	Permission string `gorm:"type:varchar(16)"`
}

func (ProjectAccessGrant) TableName() string { return "project_access_grants" }

const (
	ResourceProjectResume  = "PROJECT_RESUME"
	ResourceBorrowerResume = "BORROWER_RESUME"
)

type Resource struct {
	ID               string  `gorm:"primaryKey;type:varchar(36)"`
	OrgID            *string `gorm:"type:varchar(36)"`
	ProjectID        *string `gorm:"type:varchar(36);index"`
	ResourceType     string  `gorm:"type:varchar(32)"`
	CurrentVersionID *string `gorm:"type:varchar(36)"`
}

func (Resource) TableName() string { return "resources" }

type ChatThread struct {
	ID        string  `gorm:"primaryKey;type:varchar(36)"`
	ProjectID *string `gorm:"type:varchar(36)"`
	Topic     *string `gorm:"type:text"`
}

func (ChatThread) TableName() string { return "chat_threads" }

type ChatThreadParticipant struct {
	ThreadID   string    `gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `gorm:"primaryKey;type:varchar(36)"`
	LastReadAt time.Time `gorm:"not null"`
}

func (ChatThreadParticipant) TableName() string { return "chat_thread_participants" }

type ProjectMessage struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	ThreadID  string    `gorm:"type:varchar(36);index:idx_messages_thread_created"`
	UserID    string    `gorm:"type:varchar(36)"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index:idx_messages_thread_created"`
}

func (ProjectMessage) TableName() string { return "project_messages" }

// ProjectWorkspaceActivity 每个用户在项目工作区的最近编辑时间；简历提醒以此作为活动信号
type ProjectWorkspaceActivity struct {
	ProjectID                string `gorm:"primaryKey;type:varchar(36)"`
	UserID                   string `gorm:"primaryKey;type:varchar(36)"`
	LastProjectResumeEditAt  *time.Time
	LastBorrowerResumeEditAt *time.Time
	LastStep                 *string `gorm:"type:varchar(64)"`
}

func (ProjectWorkspaceActivity) TableName() string { return "project_workspace_activity" }

type ProjectResume struct {
	ID                  string  `gorm:"primaryKey;type:varchar(36)"`
	ProjectID           string  `gorm:"type:varchar(36);index"`
	CompletenessPercent float64 `gorm:"not null;default:0"`
	CreatedAt           time.Time
}

func (ProjectResume) TableName() string { return "project_resumes" }

type BorrowerResume struct {
	ID                  string  `gorm:"primaryKey;type:varchar(36)"`
	ProjectID           string  `gorm:"type:varchar(36);index"`
	CompletenessPercent float64 `gorm:"not null;default:0"`
	CreatedAt           time.Time
}

func (BorrowerResume) TableName() string { return "borrower_resumes" }

type Meeting struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	ProjectID   *string   `gorm:"type:varchar(36)"`
	OrganizerID string    `gorm:"type:varchar(36)"`
	Title       string    `gorm:"type:text"`
	StartTime   time.Time `gorm:"index"`
	MeetingLink *string   `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(16);default:'scheduled'"`
}

func (Meeting) TableName() string { return "meetings" }

type MeetingParticipant struct {
	MeetingID string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"primaryKey;type:varchar(36)"`
}

func (MeetingParticipant) TableName() string { return "meeting_participants" }
