package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/d60-Lab/notify-fanout/internal/event"
	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
)

// chatPreferenceType 设置页对聊天消息使用的偏好键
const chatPreferenceType = "chat_message"

func threadLabel(name string) string {
	if strings.HasPrefix(name, "#") {
		return name
	}
	return "#" + name
}

func chatLink(projectID, threadID string) string {
	return fmt.Sprintf("/project/workspace/%s?tab=chat&thread=%s", projectID, threadID)
}

// handleChatMessage: mentions get their own row, everything else folds into
// the recipient's unread thread_activity row.
func (d *Dispatcher) handleChatMessage(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	msg := p.(event.ChatMessageSent)
	threadID := model.Str(ev.ThreadID)
	if threadID == "" {
		return res.skip(ReasonInvalidPayload)
	}

	thread, err := d.threads.Get(ctx, threadID)
	if errors.Is(err, repository.ErrNotFound) {
		res.Err = fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
		return res.skip(ReasonNotFound)
	}
	if err != nil {
		return res.fail(err)
	}

	threadName := model.Str(thread.Topic)
	if threadName == "" {
		threadName = "thread"
	}
	label := threadLabel(threadName)
	projectID := model.Str(thread.ProjectID)
	if projectID == "" {
		projectID = model.Str(ev.ProjectID)
	}
	projectName := d.dir.ProjectName(ctx, projectID)

	participants, err := d.threads.Participants(ctx, threadID)
	if err != nil {
		return res.fail(err)
	}
	if len(participants) == 0 {
		return res.skip(ReasonNoCandidates)
	}

	actorID := model.Str(ev.ActorID)
	senderName := d.dir.ProfileName(ctx, actorID)
	link := chatLink(projectID, threadID)

	for _, part := range participants {
		userID := part.UserID
		if userID == actorID {
			continue
		}
		muted, err := d.prefs.IsMuted(ctx, userID, *inApp(chatPreferenceType, threadID, projectID))
		if err != nil {
			res.add(failed(userID, err))
			continue
		}
		if muted {
			res.add(skipped(userID, ReasonMuted))
			continue
		}

		if msg.IsMentioned(userID) {
			title := fmt.Sprintf("%s mentioned you in %s - %s", senderName, label, projectName)
			res.add(d.writer.Mention(ctx, userID, ev.ID, title, msg.FullContent, link, threadPayload{
				Type:        model.NotificationMention,
				ThreadID:    threadID,
				ThreadName:  threadName,
				ProjectName: projectName,
			}))
			continue
		}

		res.add(d.writer.Aggregate(ctx, AggregateInput{
			UserID:     userID,
			ThreadID:   threadID,
			EventID:    ev.ID,
			Title:      "New messages in " + projectName,
			FirstBody:  fmt.Sprintf("1 new message in **%s**", label),
			BodySuffix: fmt.Sprintf(" new messages in **%s**", label),
			LinkURL:    link,
			Payload: threadPayload{
				Type:        model.NotificationThreadActivity,
				ThreadID:    threadID,
				ThreadName:  threadName,
				ProjectName: projectName,
				Count:       1,
			},
		}))
	}
	if len(res.Tasks) == 0 {
		return res.skip(ReasonNoRecipients)
	}
	return res
}

// handleThreadUnreadStale only queues an aggregated email; the in-app side
// already shows the unread thread.
func (d *Dispatcher) handleThreadUnreadStale(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	stale := p.(event.ThreadUnreadStale)
	threadID := model.Str(ev.ThreadID)
	if threadID == "" {
		return res.skip(ReasonInvalidPayload)
	}

	topic := stale.ThreadTopic
	if topic == "" {
		thread, err := d.threads.Get(ctx, threadID)
		switch {
		case err == nil:
			topic = model.Str(thread.Topic)
		case !errors.Is(err, repository.ErrNotFound):
			return res.fail(err)
		}
	}
	if topic == "" {
		topic = "general"
	}
	label := threadLabel(topic)

	projectID := model.Str(ev.ProjectID)
	projectName := "your project"
	link := "/dashboard"
	if projectID != "" {
		projectName = d.dir.ProjectName(ctx, projectID)
		link = chatLink(projectID, threadID)
	}

	word := "messages"
	if stale.UnreadCount == 1 {
		word = "message"
	}
	email := newEmail(ev, model.DeliveryAggregated, projectID, projectName,
		fmt.Sprintf("%d unread %s in %s", stale.UnreadCount, word, label),
		staleThreadEmail{
			ThreadID:    threadID,
			ThreadTopic: topic,
			UnreadCount: stale.UnreadCount,
			ProjectName: projectName,
			LinkURL:     link,
		})
	res.add(d.deliver(ctx, nil, delivery{userID: stale.UserID, email: email}))
	return res
}
