package service

import (
	"context"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/repository"
)

// PreferenceQuery describes one delivery being considered. ThreadID and
// ProjectID may be empty; an empty id never matches a scoped row.
type PreferenceQuery struct {
	ThreadID  string
	ProjectID string
	EventType string
	Channel   model.Channel
}

// scopeMatcher selects the rows of one scope that apply to a query.
type scopeMatcher struct {
	scope model.ScopeType
	match func(p *model.UserNotificationPreference, q PreferenceQuery) bool
}

// scopeOrder 从最具体到最宽泛；第一个有命中行的作用域决定结果
var scopeOrder = []scopeMatcher{
	{model.ScopeThread, func(p *model.UserNotificationPreference, q PreferenceQuery) bool {
		return q.ThreadID != "" && p.ScopeID == q.ThreadID
	}},
	{model.ScopeProject, func(p *model.UserNotificationPreference, q PreferenceQuery) bool {
		return q.ProjectID != "" && p.ScopeID == q.ProjectID
	}},
	{model.ScopeGlobal, func(*model.UserNotificationPreference, PreferenceQuery) bool {
		return true
	}},
}

// ResolveMuted applies the scope order to a user's preference rows.
// Within one scope an exact event type beats the wildcard, then an exact
// channel beats the wildcard, then the row listed first (oldest
// created_at) wins.
func ResolveMuted(prefs []model.UserNotificationPreference, q PreferenceQuery) bool {
	relevant := make([]*model.UserNotificationPreference, 0, len(prefs))
	for i := range prefs {
		p := &prefs[i]
		if p.EventType != q.EventType && p.EventType != model.Wildcard {
			continue
		}
		if p.Channel != q.Channel && p.Channel != model.ChannelAny {
			continue
		}
		relevant = append(relevant, p)
	}

	for _, m := range scopeOrder {
		var best *model.UserNotificationPreference
		for _, p := range relevant {
			if p.ScopeType != m.scope || !m.match(p, q) {
				continue
			}
			if best == nil || specificity(p, q) > specificity(best, q) {
				best = p
			}
		}
		if best != nil {
			return best.Status == model.PreferenceMuted
		}
	}
	return false
}

func specificity(p *model.UserNotificationPreference, q PreferenceQuery) int {
	s := 0
	if p.EventType == q.EventType {
		s += 2
	}
	if p.Channel == q.Channel {
		s++
	}
	return s
}

// PreferenceResolver loads preference rows and resolves them.
type PreferenceResolver struct {
	repo repository.PreferenceRepository
}

func NewPreferenceResolver(repo repository.PreferenceRepository) *PreferenceResolver {
	return &PreferenceResolver{repo: repo}
}

// IsMuted reports whether userID muted the delivery described by q.
// A store error is returned so the caller can retry later.
func (r *PreferenceResolver) IsMuted(ctx context.Context, userID string, q PreferenceQuery) (bool, error) {
	prefs, err := r.repo.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return ResolveMuted(prefs, q), nil
}
