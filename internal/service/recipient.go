package service

import (
	"context"
	"sort"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/d60-Lab/notify-fanout/internal/access"
	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
	"github.com/d60-Lab/notify-fanout/pkg/logger"
)

// RecipientResolver 计算项目类事件的候选收件人
type RecipientResolver struct {
	members     repository.MembershipRepository
	checker     access.Checker
	concurrency int
}

func NewRecipientResolver(members repository.MembershipRepository, checker access.Checker, concurrency int) *RecipientResolver {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &RecipientResolver{members: members, checker: checker, concurrency: concurrency}
}

// CollectCandidates returns project grant holders plus the owners of the
// org that owns the resource, or the project when the resource has no org.
func (r *RecipientResolver) CollectCandidates(ctx context.Context, ev *model.DomainEvent) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	projectID := model.Str(ev.ProjectID)

	if projectID != "" {
		ids, err := r.members.ProjectGrantUserIDs(ctx, projectID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			out[id] = struct{}{}
		}
	}

	var orgID string
	if resourceID := model.Str(ev.ResourceID); resourceID != "" {
		id, err := r.members.ResourceOrgID(ctx, resourceID)
		if err != nil {
			return nil, err
		}
		orgID = id
	}
	if orgID == "" && projectID != "" {
		id, err := r.members.ProjectOrgID(ctx, projectID)
		if err != nil {
			return nil, err
		}
		orgID = id
	}
	if orgID != "" {
		owners, err := r.members.OrgOwnerIDs(ctx, orgID)
		if err != nil {
			return nil, err
		}
		for _, id := range owners {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// FilterByResourceAccess keeps the candidates allowed to view resourceID.
// Checks run concurrently; an error counts as a denial.
func (r *RecipientResolver) FilterByResourceAccess(ctx context.Context, candidates map[string]struct{}, resourceID string) []string {
	ids := sortedKeys(candidates)
	if resourceID == "" || len(ids) == 0 {
		return ids
	}

	p := pool.NewWithResults[string]().WithMaxGoroutines(r.concurrency)
	for _, id := range ids {
		id := id
		p.Go(func() string {
			ok, err := r.checker.CanView(ctx, id, resourceID)
			if err != nil {
				logger.Warn("can_view check failed, denying",
					zap.String("user_id", id), zap.String("resource_id", resourceID), zap.Error(err))
				return ""
			}
			if !ok {
				return ""
			}
			return id
		})
	}

	allowed := make([]string, 0, len(ids))
	for _, id := range p.Wait() {
		if id != "" {
			allowed = append(allowed, id)
		}
	}
	sort.Strings(allowed)
	return allowed
}

// ExcludeActor drops the user who caused the event.
func ExcludeActor(ids []string, actorID string) []string {
	if actorID == "" {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != actorID {
			out = append(out, id)
		}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
