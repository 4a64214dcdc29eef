package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/d60-Lab/notify-fanout/internal/event"
	"github.com/d60-Lab/notify-fanout/internal/model"
)

func workspaceLink(projectID string) string { return "/project/workspace/" + projectID }

func resourceLink(projectID, resourceID string) string {
	if resourceID == "" {
		return workspaceLink(projectID)
	}
	return fmt.Sprintf("/project/workspace/%s?resourceId=%s", projectID, resourceID)
}

func (d *Dispatcher) handleDocumentUploaded(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	doc := p.(event.DocumentUploaded)

	candidates, err := d.recips.CollectCandidates(ctx, ev)
	if err != nil {
		return res.fail(err)
	}
	if len(candidates) == 0 {
		return res.skip(ReasonNoCandidates)
	}
	resourceID := model.Str(ev.ResourceID)
	recipients := ExcludeActor(d.recips.FilterByResourceAccess(ctx, candidates, resourceID), model.Str(ev.ActorID))
	if len(recipients) == 0 {
		return res.skip(ReasonNoRecipients)
	}

	notified, err := d.dedup.AlreadyNotified(ctx, ev.ID)
	if err != nil {
		return res.fail(err)
	}

	projectID := model.Str(ev.ProjectID)
	projectName := d.dir.ProjectName(ctx, projectID)
	uploader := d.dir.ProfileName(ctx, model.Str(ev.ActorID))
	link := resourceLink(projectID, resourceID)

	for _, userID := range recipients {
		res.add(d.deliver(ctx, notified, delivery{
			userID: userID,
			pref:   inApp(string(ev.EventType), "", projectID),
			notification: newNotification(ev, model.NotificationDocumentUploaded,
				"Document uploaded - "+projectName,
				fmt.Sprintf(`New file **"%s"** was uploaded to **%s**.`, doc.FileName, projectName),
				link,
				documentPayload{Type: model.NotificationDocumentUploaded, FileName: doc.FileName, ProjectName: projectName, ResourceID: resourceID}),
			email: newEmail(ev, model.DeliveryAggregated, projectID, projectName,
				"New document uploaded to "+projectName,
				documentPayload{FileName: doc.FileName, ProjectName: projectName, UploaderName: uploader, ResourceID: resourceID, LinkURL: link}),
		}))
	}
	return res
}

// handleResumeIncompleteNudge notifies the payload's user when it is still
// an owner, otherwise every current owner of the project's org.
func (d *Dispatcher) handleResumeIncompleteNudge(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	nudge := p.(event.ResumeIncompleteNudge)
	projectID := model.Str(ev.ProjectID)
	if projectID == "" {
		return res.skip(ReasonInvalidPayload)
	}

	orgID, err := d.members.ProjectOrgID(ctx, projectID)
	if err != nil {
		return res.fail(err)
	}
	if orgID == "" {
		return res.skip(ReasonNotFound)
	}

	var recipients []string
	if nudge.UserID != "" {
		owner, err := d.members.IsOrgOwner(ctx, orgID, nudge.UserID)
		if err != nil {
			return res.fail(err)
		}
		if !owner {
			return res.skip(ReasonNotOwner)
		}
		recipients = []string{nudge.UserID}
	} else {
		recipients, err = d.members.OrgOwnerIDs(ctx, orgID)
		if err != nil {
			return res.fail(err)
		}
	}
	if len(recipients) == 0 {
		return res.skip(ReasonNoRecipients)
	}

	notified, err := d.dedup.AlreadyNotified(ctx, ev.ID)
	if err != nil {
		return res.fail(err)
	}

	projectName := d.dir.ProjectName(ctx, projectID)
	label := "Project"
	if nudge.ResumeType == model.ResumeBorrower {
		label = "Borrower"
	}
	link := workspaceLink(projectID)
	pct := strconv.FormatFloat(nudge.CompletionPercent, 'f', -1, 64)
	body := fmt.Sprintf("Your %s resume for **%s** is **%s%%** complete. Finish it to generate your OM!", label, projectName, pct)
	if nudge.NotStarted {
		body = fmt.Sprintf("Your %s resume for **%s** hasn't been started yet. Fill it in to generate your OM!", label, projectName)
	}

	for _, userID := range recipients {
		res.add(d.deliver(ctx, notified, delivery{
			userID: userID,
			pref:   inApp(string(ev.EventType), "", projectID),
			notification: newNotification(ev, model.NotificationResumeIncompleteNudge,
				fmt.Sprintf("Complete your %s Resume", label), body, link,
				resumeNudgePayload{
					Type:              model.NotificationResumeIncompleteNudge,
					ResumeType:        nudge.ResumeType,
					CompletionPercent: nudge.CompletionPercent,
					NudgeTier:         nudge.NudgeTier,
					ProjectID:         projectID,
					ProjectName:       projectName,
				}),
			email: newEmail(ev, model.DeliveryImmediate, projectID, projectName,
				fmt.Sprintf("Complete your %s Resume - %s", label, projectName),
				resumeNudgePayload{
					ResumeType:        nudge.ResumeType,
					ResumeTypeLabel:   label,
					CompletionPercent: nudge.CompletionPercent,
					NudgeTier:         nudge.NudgeTier,
					ProjectName:       projectName,
					LinkURL:           link,
				}),
		}))
	}
	return res
}

func (d *Dispatcher) handleInviteAccepted(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	inv := p.(event.InviteAccepted)
	if inv.OrgID == "" || inv.NewMemberID == "" {
		return res.skip(ReasonInvalidPayload)
	}

	owners, err := d.members.OrgOwnerIDs(ctx, inv.OrgID)
	if err != nil {
		return res.fail(err)
	}
	if len(owners) == 0 {
		return res.skip(ReasonNoCandidates)
	}
	recipients := ExcludeActor(owners, inv.NewMemberID)
	if len(recipients) == 0 {
		return res.skip(ReasonNoRecipients)
	}

	notified, err := d.dedup.AlreadyNotified(ctx, ev.ID)
	if err != nil {
		return res.fail(err)
	}

	const link = "/team"
	for _, userID := range recipients {
		res.add(d.deliver(ctx, notified, delivery{
			userID: userID,
			pref:   inApp(string(ev.EventType), "", ""),
			notification: newNotification(ev, model.NotificationInviteAccepted,
				"New team member joined - "+inv.OrgName,
				fmt.Sprintf("**%s** has joined **%s**", inv.NewMemberName, inv.OrgName),
				link,
				invitePayload{
					Type:           model.NotificationInviteAccepted,
					OrgID:          inv.OrgID,
					OrgName:        inv.OrgName,
					NewMemberID:    inv.NewMemberID,
					NewMemberName:  inv.NewMemberName,
					NewMemberEmail: inv.NewMemberEmail,
				}),
			email: newEmail(ev, model.DeliveryImmediate, "", "",
				fmt.Sprintf("%s has joined %s", inv.NewMemberName, inv.OrgName),
				invitePayload{
					OrgID:          inv.OrgID,
					OrgName:        inv.OrgName,
					NewMemberID:    inv.NewMemberID,
					NewMemberName:  inv.NewMemberName,
					NewMemberEmail: inv.NewMemberEmail,
					LinkURL:        link,
				}),
		}))
	}
	return res
}

// accessDelivery is the shared single-recipient path of the access events.
func (d *Dispatcher) accessDelivery(ctx context.Context, ev *model.DomainEvent, res *Result, dl delivery) *Result {
	notified, err := d.dedup.AlreadyNotified(ctx, ev.ID)
	if err != nil {
		return res.fail(err)
	}
	res.add(d.deliver(ctx, notified, dl))
	return res
}

func (d *Dispatcher) handleProjectAccessGranted(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	ac := p.(event.AccessChange)
	link := workspaceLink(ac.ProjectID)
	data := accessPayload{ProjectID: ac.ProjectID, ProjectName: ac.ProjectName, NewPermission: ac.NewPermission}

	payload := data
	payload.Type = model.NotificationProjectAccessGranted
	body := data
	body.LinkURL = link

	return d.accessDelivery(ctx, ev, res, delivery{
		userID: ac.AffectedUserID,
		pref:   inApp(string(ev.EventType), "", ac.ProjectID),
		notification: newNotification(ev, model.NotificationProjectAccessGranted,
			"You've been added to "+ac.ProjectName,
			fmt.Sprintf("You now have **%s** access to **%s**", ac.NewPermission, ac.ProjectName),
			link, payload),
		email: newEmail(ev, model.DeliveryImmediate, ac.ProjectID, ac.ProjectName,
			"You've been added to "+ac.ProjectName, body),
	})
}

// handleProjectAccessChanged always notifies; it only emails on view -> edit.
func (d *Dispatcher) handleProjectAccessChanged(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	ac := p.(event.AccessChange)
	link := workspaceLink(ac.ProjectID)
	data := accessPayload{
		ProjectID:     ac.ProjectID,
		ProjectName:   ac.ProjectName,
		OldPermission: ac.OldPermission,
		NewPermission: ac.NewPermission,
	}

	payload := data
	payload.Type = model.NotificationProjectAccessChanged
	dl := delivery{
		userID: ac.AffectedUserID,
		pref:   inApp(string(ev.EventType), "", ac.ProjectID),
		notification: newNotification(ev, model.NotificationProjectAccessChanged,
			fmt.Sprintf("Your access to %s has changed", ac.ProjectName),
			fmt.Sprintf("Your access changed from **%s** to **%s**", ac.OldPermission, ac.NewPermission),
			link, payload),
	}
	if ac.IsUpgrade() {
		body := data
		body.LinkURL = link
		dl.email = newEmail(ev, model.DeliveryImmediate, ac.ProjectID, ac.ProjectName,
			fmt.Sprintf("Your access to %s has been upgraded", ac.ProjectName), body)
	}
	return d.accessDelivery(ctx, ev, res, dl)
}

func (d *Dispatcher) handleProjectAccessRevoked(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	ac := p.(event.AccessChange)

	return d.accessDelivery(ctx, ev, res, delivery{
		userID: ac.AffectedUserID,
		pref:   inApp(string(ev.EventType), "", ""),
		notification: newNotification(ev, model.NotificationProjectAccessRevoked,
			"Access removed - "+ac.ProjectName,
			fmt.Sprintf("Your access to **%s** has been removed", ac.ProjectName),
			"/dashboard",
			accessPayload{Type: model.NotificationProjectAccessRevoked, ProjectID: ac.ProjectID, ProjectName: ac.ProjectName}),
	})
}

func (d *Dispatcher) handleDocumentPermissionGranted(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	ac := p.(event.AccessChange)
	if ac.ProjectID == "" || ac.ResourceID == "" {
		return res.skip(ReasonInvalidPayload)
	}

	return d.accessDelivery(ctx, ev, res, delivery{
		userID: ac.AffectedUserID,
		pref:   inApp(string(ev.EventType), "", ac.ProjectID),
		notification: newNotification(ev, model.NotificationDocumentPermissionGranted,
			"Document access granted - "+ac.ProjectName,
			fmt.Sprintf(`You now have **%s** access to **"%s"** in **%s**`, ac.NewPermission, ac.ResourceName, ac.ProjectName),
			resourceLink(ac.ProjectID, ac.ResourceID),
			accessPayload{
				Type:          model.NotificationDocumentPermissionGranted,
				ProjectID:     ac.ProjectID,
				ProjectName:   ac.ProjectName,
				ResourceID:    ac.ResourceID,
				ResourceName:  ac.ResourceName,
				NewPermission: ac.NewPermission,
			}),
	})
}

// handleDocumentPermissionChanged only reports view -> edit upgrades.
func (d *Dispatcher) handleDocumentPermissionChanged(ctx context.Context, ev *model.DomainEvent, p event.Payload) *Result {
	res := newResult(ev)
	ac := p.(event.AccessChange)
	if ac.ProjectID == "" || ac.ResourceID == "" {
		return res.skip(ReasonInvalidPayload)
	}
	if !ac.IsUpgrade() {
		return res.skip(ReasonNotUpgrade)
	}

	return d.accessDelivery(ctx, ev, res, delivery{
		userID: ac.AffectedUserID,
		pref:   inApp(string(ev.EventType), "", ac.ProjectID),
		notification: newNotification(ev, model.NotificationDocumentPermissionChanged,
			"Document access upgraded - "+ac.ProjectName,
			fmt.Sprintf(`Your access to **"%s"** has been upgraded from **view** to **edit** in **%s**`, ac.ResourceName, ac.ProjectName),
			resourceLink(ac.ProjectID, ac.ResourceID),
			accessPayload{
				Type:          model.NotificationDocumentPermissionChanged,
				ProjectID:     ac.ProjectID,
				ProjectName:   ac.ProjectName,
				ResourceID:    ac.ResourceID,
				ResourceName:  ac.ResourceName,
				OldPermission: ac.OldPermission,
				NewPermission: ac.NewPermission,
			}),
	})
}
