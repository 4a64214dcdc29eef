package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/internal/event"
	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

// DefaultNudgeTiers 1 天、3 天、5 天、7 天
var DefaultNudgeTiers = []time.Duration{24 * time.Hour, 72 * time.Hour, 120 * time.Hour, 168 * time.Hour}

// ComputeNudgeStage returns the highest tier whose threshold has elapsed
// since lastActivity, or 0. tiers must be increasing.
func ComputeNudgeStage(now, lastActivity time.Time, tiers []time.Duration) int {
	elapsed := now.Sub(lastActivity)
	stage := 0
	for i, threshold := range tiers {
		if elapsed >= threshold {
			stage = i + 1
		}
	}
	return stage
}

// IsNotStarted reports that neither resume has any progress.
func IsNotStarted(projectPct, borrowerPct float64) bool {
	return projectPct <= 0 && borrowerPct <= 0
}

// ResumeProgress is the input to ChooseResumeFocus. LastStep is the most
// recently edited workspace step, e.g. "borrower.financials".
type ResumeProgress struct {
	ProjectPct  float64
	BorrowerPct float64
	LastStep    string
}

const nearlyDonePct = 90

// ChooseResumeFocus picks the resume to emphasise. A finished resume hands
// focus to the other one (none when both are done); a resume that alone is
// at least 90% complete wins; otherwise the last edited step decides, as
// long as it points at an unfinished resume; the default is project.
func ChooseResumeFocus(p ResumeProgress) model.ResumeType {
	projectDone, borrowerDone := p.ProjectPct >= 100, p.BorrowerPct >= 100
	switch {
	case projectDone && borrowerDone:
		return ""
	case projectDone:
		return model.ResumeBorrower
	case borrowerDone:
		return model.ResumeProject
	}

	projectNear, borrowerNear := p.ProjectPct >= nearlyDonePct, p.BorrowerPct >= nearlyDonePct
	if projectNear != borrowerNear {
		if projectNear {
			return model.ResumeProject
		}
		return model.ResumeBorrower
	}

	if rt := stepResumeType(p.LastStep); rt != "" {
		return rt
	}
	return model.ResumeProject
}

func stepResumeType(step string) model.ResumeType {
	switch {
	case strings.HasPrefix(step, string(model.ResumeBorrower)):
		return model.ResumeBorrower
	case strings.HasPrefix(step, string(model.ResumeProject)):
		return model.ResumeProject
	}
	return ""
}

// NudgeSummary 一次简历提醒扫描的统计
type NudgeSummary struct {
	Projects   int   `json:"projects"`
	Checked    int   `json:"checked"`
	Complete   int   `json:"complete"`
	NotDue     int   `json:"not_due"`
	Reset      int64 `json:"reset"`
	Fired      int   `json:"fired"`
	Duplicates int   `json:"duplicates"`
	Errors     int   `json:"errors"`
}

// ResumeNudger escalates reminders for incomplete resumes. The fired tiers
// live in resume_nudges; an edit newer than a recorded nudge clears it, so
// the ladder restarts at tier 1.
type ResumeNudger struct {
	resumes   repository.ResumeRepository
	publisher *Publisher
	handoff   Handoff
	tiers     []time.Duration
	pageSize  int
}

func NewResumeNudger(resumes repository.ResumeRepository, publisher *Publisher, handoff Handoff, tiers []time.Duration) *ResumeNudger {
	if len(tiers) == 0 {
		tiers = DefaultNudgeTiers
	}
	if handoff == nil {
		handoff = NoHandoff
	}
	return &ResumeNudger{resumes: resumes, publisher: publisher, handoff: handoff, tiers: tiers, pageSize: 200}
}

// Sweep checks every project. One project's store error is logged and
// counted; the sweep carries on with the rest.
func (n *ResumeNudger) Sweep(ctx context.Context, now time.Time) (NudgeSummary, error) {
	ctx, span := tracer.Start(ctx, "resume_nudge.sweep")
	defer span.End()

	var sum NudgeSummary
	for offset := 0; ; offset += n.pageSize {
		projects, err := n.resumes.ListProjects(ctx, offset, n.pageSize)
		if err != nil {
			return sum, err
		}
		for _, p := range projects {
			sum.Projects++
			if err := n.sweepProject(ctx, p, now, &sum); err != nil {
				sum.Errors++
				logger.Error("resume nudge failed", zap.String("project_id", p.ID), zap.Error(err))
			}
		}
		if len(projects) < n.pageSize {
			break
		}
	}

	span.SetAttributes(attribute.Int("resume_nudge.fired", sum.Fired))
	logger.Info("resume nudge sweep finished",
		zap.Int("projects", sum.Projects),
		zap.Int("fired", sum.Fired),
		zap.Int64("reset", sum.Reset),
		zap.Int("errors", sum.Errors),
	)
	return sum, nil
}

func (n *ResumeNudger) sweepProject(ctx context.Context, p *model.Project, now time.Time, sum *NudgeSummary) error {
	activity, err := n.resumes.WorkspaceActivity(ctx, p.ID)
	if err != nil {
		return err
	}

	pct := make(map[model.ResumeType]float64, 2)
	for _, rt := range []model.ResumeType{model.ResumeProject, model.ResumeBorrower} {
		v, _, err := n.resumes.Completeness(ctx, p.ID, rt)
		if err != nil {
			return err
		}
		pct[rt] = v
	}
	focus := ChooseResumeFocus(ResumeProgress{
		ProjectPct:  pct[model.ResumeProject],
		BorrowerPct: pct[model.ResumeBorrower],
		LastStep:    latestStep(activity),
	})
	notStarted := IsNotStarted(pct[model.ResumeProject], pct[model.ResumeBorrower])

	for _, rt := range []model.ResumeType{model.ResumeProject, model.ResumeBorrower} {
		sum.Checked++
		if pct[rt] >= 100 {
			sum.Complete++
			continue
		}

		last := lastResumeActivity(activity, rt, p.CreatedAt)
		reset, err := n.resumes.DeleteNudgesSentBefore(ctx, p.ID, rt, last)
		if err != nil {
			return err
		}
		sum.Reset += reset

		sent, err := n.resumes.Nudges(ctx, p.ID, rt)
		if err != nil {
			return err
		}
		current := 0
		for _, s := range sent {
			if s.Tier > current {
				current = s.Tier
			}
		}

		tier := ComputeNudgeStage(now, last, n.tiers)
		if tier <= current {
			sum.NotDue++
			continue
		}

		ev, err := n.publisher.Publish(ctx, EventDraft{
			ProjectID:  p.ID,
			OrgID:      p.OwnerOrgID,
			OccurredAt: now,
			Payload: event.ResumeIncompleteNudge{
				ResumeType:        rt,
				CompletionPercent: pct[rt],
				NudgeTier:         tier,
				FocusResumeType:   focus,
				NotStarted:        notStarted,
			},
		}, &model.ResumeNudge{
			ID:         uuid.NewString(),
			ProjectID:  p.ID,
			ResumeType: rt,
			Tier:       tier,
			SentAt:     now,
		})
		if err != nil {
			return err
		}
		if ev == nil {
			sum.Duplicates++
			continue
		}
		sum.Fired++
		logger.Info("resume nudge fired",
			zap.String("project_id", p.ID),
			zap.String("resume_type", string(rt)),
			zap.Int("tier", tier),
			zap.Int64("event_id", ev.ID),
		)
		n.handoff.Submit(ctx, ev)
	}
	return nil
}

// RecordResumeEdit stores an edit and clears the recorded nudges for that
// resume, starting a new activity epoch.
func (n *ResumeNudger) RecordResumeEdit(ctx context.Context, projectID, userID string, rt model.ResumeType, step string, at time.Time) (int64, error) {
	return n.resumes.RecordEdit(ctx, projectID, userID, rt, step, at)
}

// lastResumeActivity is the newest edit of that resume by anyone, or the
// project's creation when nobody has edited it.
func lastResumeActivity(activity []*model.ProjectWorkspaceActivity, rt model.ResumeType, projectCreated time.Time) time.Time {
	last := projectCreated
	for _, a := range activity {
		at := a.LastProjectResumeEditAt
		if rt == model.ResumeBorrower {
			at = a.LastBorrowerResumeEditAt
		}
		if at != nil && at.After(last) {
			last = *at
		}
	}
	return last
}

func latestStep(activity []*model.ProjectWorkspaceActivity) string {
	var (
		step   string
		latest time.Time
	)
	for _, a := range activity {
		for _, at := range []*time.Time{a.LastProjectResumeEditAt, a.LastBorrowerResumeEditAt} {
			if at != nil && at.After(latest) && a.LastStep != nil {
				latest = *at
				step = *a.LastStep
			}
		}
	}
	return step
}
