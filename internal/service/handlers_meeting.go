package service

import (
	"context"
	"fmt"
	"time"

	"github.com/d60-Lab/notify-fanout/internal/event"
	"github.com/d60-Lab/notify-fanout/internal/model"
)

func meetingsLink(projectID string) string {
	if projectID == "" {
		return "/dashboard?tab=meetings"
	}
	return fmt.Sprintf("/project/workspace/%s?tab=meetings", projectID)
}

// meetingPref scopes to the project when the meeting belongs to one.
func meetingPref(eventType model.EventType, projectID string) *PreferenceQuery {
	return inApp(string(eventType), "", projectID)
}

// optionalProjectName is "" for meetings outside any project.
func (d *Dispatcher) optionalProjectName(ctx context.Context, projectID string) string {
	if projectID == "" {
		return ""
	}
	return d.dir.ProjectName(ctx, projectID)
}

func withProject(title, projectName string) string {
	if projectName == "" {
		return title
	}
	return title + " - " + projectName
}

func (d *Dispatcher) handleMeetingInvited(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	inv := p.(event.MeetingInvited)
	meetingID := model.Str(ev.MeetingID)
	if meetingID == "" {
		return res.skip(ReasonInvalidPayload)
	}

	projectID := model.Str(ev.ProjectID)
	organizerID := model.Str(ev.ActorID)
	organizer := d.dir.ProfileName(ctx, organizerID)
	projectName := d.optionalProjectName(ctx, projectID)

	body := fmt.Sprintf("**%s**", inv.MeetingTitle)
	if inv.StartTime != "" {
		body += "\n{{meeting_time}}"
	}

	notified, err := d.dedup.AlreadyNotified(ctx, ev.ID)
	if err != nil {
		return res.fail(err)
	}
	res.add(d.deliver(ctx, notified, delivery{
		userID: inv.InvitedUserID,
		pref:   meetingPref(ev.EventType, projectID),
		notification: newNotification(ev, model.NotificationMeetingInvitation,
			withProject(organizer+" invited you to a meeting", projectName),
			body, meetingsLink(projectID),
			meetingPayload{
				Type:          model.NotificationMeetingInvitation,
				MeetingID:     meetingID,
				MeetingTitle:  inv.MeetingTitle,
				StartTime:     inv.StartTime,
				OrganizerID:   organizerID,
				OrganizerName: organizer,
				ProjectID:     projectID,
				ProjectName:   projectName,
			}),
	}))
	return res
}

func (d *Dispatcher) handleMeetingUpdated(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	upd := p.(event.MeetingUpdated)
	meetingID := model.Str(ev.MeetingID)
	if meetingID == "" {
		return res.skip(ReasonInvalidPayload)
	}

	organizerID := model.Str(ev.ActorID)
	participants, err := d.meetings.ParticipantIDs(ctx, meetingID, organizerID)
	if err != nil {
		return res.fail(err)
	}
	if len(participants) == 0 {
		return res.skip(ReasonNoCandidates)
	}

	notified, err := d.dedup.AlreadyNotified(ctx, ev.ID)
	if err != nil {
		return res.fail(err)
	}

	projectID := model.Str(ev.ProjectID)
	organizer := d.dir.ProfileName(ctx, organizerID)
	projectName := d.optionalProjectName(ctx, projectID)

	body := fmt.Sprintf("**%s**", upd.MeetingTitle)
	if upd.StartTime != "" {
		body += "\nNew time: {{meeting_time}}"
	}
	if upd.Changes.TimeChanged {
		body += "\n Time has been changed"
	}
	if upd.Changes.ParticipantsChanged {
		body += "\n Participants updated"
	}
	title := withProject(organizer+" updated a meeting", projectName)
	changes := upd.Changes

	for _, userID := range participants {
		res.add(d.deliver(ctx, notified, delivery{
			userID: userID,
			pref:   meetingPref(ev.EventType, projectID),
			notification: newNotification(ev, model.NotificationMeetingUpdate,
				title, body, meetingsLink(projectID),
				meetingPayload{
					Type:          model.NotificationMeetingUpdate,
					MeetingID:     meetingID,
					MeetingTitle:  upd.MeetingTitle,
					StartTime:     upd.StartTime,
					OrganizerID:   organizerID,
					OrganizerName: organizer,
					ProjectID:     projectID,
					ProjectName:   projectName,
					Changes:       &changes,
				}),
		}))
	}
	return res
}

func (d *Dispatcher) handleMeetingReminder(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	rem := p.(event.MeetingReminder)
	meetingID := model.Str(ev.MeetingID)
	if meetingID == "" {
		return res.skip(ReasonInvalidPayload)
	}

	projectID := model.Str(ev.ProjectID)
	projectName := d.optionalProjectName(ctx, projectID)

	body := fmt.Sprintf("**%s**", rem.MeetingTitle)
	if start, err := time.Parse(time.RFC3339, rem.StartTime); err == nil {
		body += "\nStarts at " + start.UTC().Format("03:04 PM")
	}
	if projectName != "" {
		body += "\n" + projectName
	}

	notified, err := d.dedup.AlreadyNotified(ctx, ev.ID)
	if err != nil {
		return res.fail(err)
	}
	res.add(d.deliver(ctx, notified, delivery{
		userID: rem.UserID,
		pref:   meetingPref(ev.EventType, projectID),
		notification: newNotification(ev, model.NotificationMeetingReminder,
			fmt.Sprintf("Reminder: Meeting in %d minutes", rem.ReminderMinutes),
			body, meetingsLink(projectID),
			meetingPayload{
				Type:            model.NotificationMeetingReminder,
				MeetingID:       meetingID,
				MeetingTitle:    rem.MeetingTitle,
				StartTime:       rem.StartTime,
				MeetingLink:     rem.MeetingLink,
				ProjectID:       projectID,
				ProjectName:     projectName,
				ReminderMinutes: rem.ReminderMinutes,
			}),
	}))
	return res
}
