package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/d60-Lab/notify-fanout/internal/event"
	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
)

// EventDraft 扫描任务生成的系统事件（actor 为空）
type EventDraft struct {
	ProjectID  string
	OrgID      string
	ResourceID string
	ThreadID   string
	MeetingID  string
	OccurredAt time.Time
	Payload    event.Payload
}

// Publisher 在一个事务内落地领域事件与对应的去重行
type Publisher struct {
	events repository.EventRepository
}

func NewPublisher(events repository.EventRepository) *Publisher { return &Publisher{events: events} }

// Publish writes the event and its dedupe row together. It returns nil and
// no error when the dedupe row already existed.
func (p *Publisher) Publish(ctx context.Context, draft EventDraft, link repository.EventLink) (*model.DomainEvent, error) {
	raw, err := json.Marshal(draft.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", draft.Payload.Type(), err)
	}
	ev := &model.DomainEvent{
		EventType:  draft.Payload.Type(),
		ProjectID:  model.Ptr(draft.ProjectID),
		OrgID:      model.Ptr(draft.OrgID),
		ResourceID: model.Ptr(draft.ResourceID),
		ThreadID:   model.Ptr(draft.ThreadID),
		MeetingID:  model.Ptr(draft.MeetingID),
		OccurredAt: draft.OccurredAt,
		Payload:    raw,
	}
	ok, err := p.events.Publish(ctx, ev, link)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return ev, nil
}
