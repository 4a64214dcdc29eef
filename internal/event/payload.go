// Package event turns the open-ended domain event payload into one typed
// variant per event type. Parsing happens once, at the dispatcher boundary.
package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

var (
	// ErrUnsupported is returned for event types no handler understands.
	ErrUnsupported = errors.New("unsupported event type")
	// ErrInvalid wraps decode and validation failures.
	ErrInvalid = errors.New("invalid event payload")
)

var validate = validator.New()

// Payload is implemented by every typed payload.
type Payload interface {
	Type() model.EventType
}

type DocumentUploaded struct {
	FileName string `json:"fileName"`
}

func (DocumentUploaded) Type() model.EventType { return model.EventDocumentUploaded }

type ChatMessageSent struct {
	MentionedUserIDs []string `json:"mentioned_user_ids"`
	FullContent      string   `json:"full_content"`
}

func (ChatMessageSent) Type() model.EventType { return model.EventChatMessageSent }

// IsMentioned reports whether userID is explicitly mentioned.
func (p ChatMessageSent) IsMentioned(userID string) bool {
	for _, id := range p.MentionedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type ThreadUnreadStale struct {
	UserID           string `json:"user_id" validate:"required"`
	ThreadTopic      string `json:"thread_topic"`
	LatestMessageAt  string `json:"latest_message_at"`
	LatestSenderID   string `json:"latest_sender_id"`
	AnchorLastReadAt string `json:"anchor_last_read_at"`
	UnreadCount      int    `json:"unread_count"`
}

func (ThreadUnreadStale) Type() model.EventType { return model.EventThreadUnreadStale }

type MeetingInvited struct {
	InvitedUserID string `json:"invited_user_id" validate:"required"`
	MeetingTitle  string `json:"meeting_title"`
	StartTime     string `json:"start_time"`
}

func (MeetingInvited) Type() model.EventType { return model.EventMeetingInvited }

type MeetingChanges struct {
	TimeChanged         bool `json:"timeChanged"`
	ParticipantsChanged bool `json:"participantsChanged"`
}

type MeetingUpdated struct {
	MeetingTitle string         `json:"meeting_title"`
	StartTime    string         `json:"start_time"`
	Changes      MeetingChanges `json:"changes"`
}

func (MeetingUpdated) Type() model.EventType { return model.EventMeetingUpdated }

type MeetingReminder struct {
	UserID          string `json:"user_id" validate:"required"`
	MeetingTitle    string `json:"meeting_title"`
	StartTime       string `json:"start_time"`
	MeetingLink     string `json:"meeting_link"`
	ReminderMinutes int    `json:"reminder_minutes"`
}

func (MeetingReminder) Type() model.EventType { return model.EventMeetingReminder }

// ResumeIncompleteNudge is emitted by the resume nudge sweep. UserID is
// optional: when empty the nudge goes to every current org owner.
type ResumeIncompleteNudge struct {
	ResumeType        model.ResumeType `json:"resume_type" validate:"required,oneof=project borrower"`
	CompletionPercent float64          `json:"completion_percent" validate:"gte=0,lt=100"`
	NudgeTier         int              `json:"nudge_tier" validate:"required,gte=1"`
	FocusResumeType   model.ResumeType `json:"focus_resume_type,omitempty" validate:"omitempty,oneof=project borrower"`
	NotStarted        bool             `json:"not_started,omitempty"`
	UserID            string           `json:"user_id,omitempty"`
}

func (ResumeIncompleteNudge) Type() model.EventType { return model.EventResumeIncompleteNudge }

type InviteAccepted struct {
	OrgID          string `json:"org_id"`
	NewMemberID    string `json:"new_member_id"`
	NewMemberName  string `json:"new_member_name"`
	NewMemberEmail string `json:"new_member_email"`
	OrgName        string `json:"org_name"`
}

func (InviteAccepted) Type() model.EventType { return model.EventInviteAccepted }

// AccessChange covers the three project access events.
type AccessChange struct {
	Kind           model.EventType `json:"-"`
	AffectedUserID string          `json:"affected_user_id" validate:"required"`
	ProjectID      string          `json:"project_id"`
	ProjectName    string          `json:"project_name"`
	OldPermission  string          `json:"old_permission"`
	NewPermission  string          `json:"new_permission"`
	ResourceID     string          `json:"resource_id"`
	ResourceName   string          `json:"resource_name"`
}

func (p AccessChange) Type() model.EventType { return p.Kind }

// IsUpgrade reports a view -> edit change.
func (p AccessChange) IsUpgrade() bool {
	return p.OldPermission == "view" && p.NewPermission == "edit"
}

// Parse decodes ev.Payload into the variant for ev.EventType, applies the
// same defaults the producers rely on, and validates required fields.
func Parse(ev *model.DomainEvent) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch ev.EventType {
	case model.EventDocumentUploaded:
		v := DocumentUploaded{FileName: "A new file"}
		err = decode(ev, &v)
		p = v
	case model.EventChatMessageSent:
		v := ChatMessageSent{FullContent: "New message"}
		err = decode(ev, &v)
		p = v
	case model.EventThreadUnreadStale:
		v := ThreadUnreadStale{UnreadCount: 1}
		err = decode(ev, &v)
		p = v
	case model.EventMeetingInvited:
		v := MeetingInvited{MeetingTitle: "a meeting"}
		err = decode(ev, &v)
		p = v
	case model.EventMeetingUpdated:
		v := MeetingUpdated{MeetingTitle: "a meeting"}
		err = decode(ev, &v)
		p = v
	case model.EventMeetingReminder:
		v := MeetingReminder{MeetingTitle: "a meeting", ReminderMinutes: 30}
		err = decode(ev, &v)
		p = v
	case model.EventResumeIncompleteNudge:
		var v ResumeIncompleteNudge
		err = decode(ev, &v)
		p = v
	case model.EventInviteAccepted:
		v := InviteAccepted{NewMemberName: "A new member", OrgName: "your organization"}
		err = decode(ev, &v)
		if v.OrgID == "" {
			v.OrgID = model.Str(ev.OrgID)
		}
		if ev.ActorID != nil {
			v.NewMemberID = *ev.ActorID
		}
		p = v
	case model.EventProjectAccessGranted, model.EventProjectAccessChanged, model.EventProjectAccessRevoked,
		model.EventDocumentPermissionGranted, model.EventDocumentPermissionChanged:
		v := AccessChange{
			Kind:          ev.EventType,
			ProjectName:   "a project",
			ResourceName:  "a document",
			OldPermission: "view",
			NewPermission: "view",
		}
		err = decode(ev, &v)
		if ev.ProjectID != nil {
			v.ProjectID = *ev.ProjectID
		}
		if ev.ResourceID != nil {
			v.ResourceID = *ev.ResourceID
		}
		p = v
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ev.EventType)
	}
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %s event %d: %v", ErrInvalid, ev.EventType, ev.ID, err)
	}
	return p, nil
}

func decode(ev *model.DomainEvent, dst any) error {
	if len(ev.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(ev.Payload, dst); err != nil {
		return fmt.Errorf("%w: %s event %d: %v", ErrInvalid, ev.EventType, ev.ID, err)
	}
	return nil
}
