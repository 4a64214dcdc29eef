package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

func TestComputeNudgeStage(t *testing.T) {
	last := at("2025-01-01T00:00:00Z")
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{40 * time.Minute, 0},
		{24 * time.Hour, 1},
		{25 * time.Hour, 1},
		{73 * time.Hour, 2},
		{5 * 24 * time.Hour, 3},
		{30 * 24 * time.Hour, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeNudgeStage(last.Add(tt.elapsed), last, DefaultNudgeTiers), tt.elapsed.String())
	}
	// 活动时间在未来（时钟漂移）不触发
	assert.Equal(t, 0, ComputeNudgeStage(last, last.Add(time.Hour), DefaultNudgeTiers))
}

func TestIsNotStarted(t *testing.T) {
	assert.True(t, IsNotStarted(0, 0))
	assert.False(t, IsNotStarted(0, 10))
	assert.False(t, IsNotStarted(5, 0))
}

func TestChooseResumeFocus(t *testing.T) {
	tests := []struct {
		name string
		in   ResumeProgress
		want model.ResumeType
	}{
		{"both done", ResumeProgress{ProjectPct: 100, BorrowerPct: 100}, ""},
		{"project done", ResumeProgress{ProjectPct: 100, BorrowerPct: 20}, model.ResumeBorrower},
		{"borrower done", ResumeProgress{ProjectPct: 20, BorrowerPct: 100}, model.ResumeProject},
		{"borrower nearly done", ResumeProgress{ProjectPct: 40, BorrowerPct: 92}, model.ResumeBorrower},
		{"project nearly done", ResumeProgress{ProjectPct: 95, BorrowerPct: 10, LastStep: "borrower.kyc"}, model.ResumeProject},
		{"both nearly done falls back to step", ResumeProgress{ProjectPct: 95, BorrowerPct: 91, LastStep: "borrower.kyc"}, model.ResumeBorrower},
		{"last step", ResumeProgress{ProjectPct: 30, BorrowerPct: 30, LastStep: "borrower.financials"}, model.ResumeBorrower},
		{"default", ResumeProgress{ProjectPct: 30, BorrowerPct: 30}, model.ResumeProject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChooseResumeFocus(tt.in))
		})
	}
}

func TestResumeNudgeSweepLadder(t *testing.T) {
	f := newFixture(t, fakeChecker{}, nil)
	created := at("2025-01-01T00:00:00Z")
	f.seed(t,
		&model.Project{ID: "p1", Name: "Harbor Lofts", OwnerOrgID: "o1", CreatedAt: created},
		&model.OrgMember{OrgID: "o1", UserID: "owner-a", Role: model.OrgRoleOwner},
		&model.ProjectResume{ID: "pr1", ProjectID: "p1", CompletenessPercent: 40, CreatedAt: created},
		// 两份简历都已完成的项目不提醒
		&model.Project{ID: "p2", Name: "Done Deal", OwnerOrgID: "o1", CreatedAt: created},
		&model.ProjectResume{ID: "pr2", ProjectID: "p2", CompletenessPercent: 100, CreatedAt: created},
		&model.BorrowerResume{ID: "br2", ProjectID: "p2", CompletenessPercent: 100, CreatedAt: created},
	)
	ctx := context.Background()
	nudger := f.svc.ResumeNudges

	sum, err := nudger.Sweep(ctx, created.Add(40*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Fired)
	assert.Equal(t, 2, sum.Complete)

	day1 := created.Add(25 * time.Hour)
	sum, err = nudger.Sweep(ctx, day1)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Fired) // project + borrower, tier 1
	assert.Len(t, f.notifications(t, "owner-a"), 2)

	// 同一档位只发一次
	sum, err = nudger.Sweep(ctx, day1.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Fired)
	assert.Equal(t, 2, sum.NotDue)

	day3 := created.Add(73 * time.Hour)
	sum, err = nudger.Sweep(ctx, day3)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Fired)
	assert.EqualValues(t, 2, f.count(t, &model.ResumeNudge{}, "project_id = ? AND resume_type = ?", "p1", model.ResumeProject))

	// 编辑后重新开始计时
	deleted, err := nudger.RecordResumeEdit(ctx, "p1", "owner-a", model.ResumeProject, "project.basics", day3)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	sum, err = nudger.Sweep(ctx, day3.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Fired)

	sum, err = nudger.Sweep(ctx, day3.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Fired)

	var nudges []model.ResumeNudge
	require.NoError(t, f.db.Where("project_id = ?", "p1").Order("resume_type, tier").Find(&nudges).Error)
	require.Len(t, nudges, 3)
	assert.Equal(t, model.ResumeBorrower, nudges[0].ResumeType)
	assert.Equal(t, 1, nudges[0].Tier)
	assert.Equal(t, 2, nudges[1].Tier)
	assert.Equal(t, model.ResumeProject, nudges[2].ResumeType)
	assert.Equal(t, 1, nudges[2].Tier)

	// 每次触发都对应一个事件和一条通知
	assert.EqualValues(t, 5, f.count(t, &model.DomainEvent{}, "event_type = ?", model.EventResumeIncompleteNudge))
	assert.Len(t, f.notifications(t, "owner-a"), 5)
}

func TestResumeNudgeSkipsIntermediateTiers(t *testing.T) {
	f := newFixture(t, fakeChecker{}, nil)
	created := at("2025-01-01T00:00:00Z")
	f.seed(t,
		&model.Project{ID: "p1", Name: "Quiet Project", OwnerOrgID: "o1", CreatedAt: created},
		&model.BorrowerResume{ID: "br1", ProjectID: "p1", CompletenessPercent: 100, CreatedAt: created},
	)

	sum, err := f.svc.ResumeNudges.Sweep(context.Background(), created.Add(8*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Fired)

	var nudge model.ResumeNudge
	require.NoError(t, f.db.Where("project_id = ?", "p1").First(&nudge).Error)
	assert.Equal(t, model.ResumeProject, nudge.ResumeType)
	assert.Equal(t, 4, nudge.Tier)
}
