// Package access answers "can this user view this resource" for the
// recipient resolver. The authoritative rule lives in the database
// (can_view function); this package only calls it.
package access

import (
	"context"

	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Checker is the can-view capability.
type Checker interface {
	CanView(ctx context.Context, userID, resourceID string) (bool, error)
}

type sqlChecker struct{ db *gorm.DB }

// NewSQLChecker calls the can_view(user_id, resource_id) SQL function.
func NewSQLChecker(db *gorm.DB) Checker { return &sqlChecker{db: db} }

func (c *sqlChecker) CanView(ctx context.Context, userID, resourceID string) (bool, error) {
	var ok bool
	err := c.db.WithContext(ctx).Raw("SELECT can_view(?, ?)", userID, resourceID).Scan(&ok).Error
	return ok, err
}

type rateLimited struct {
	next    Checker
	limiter *rate.Limiter
}

// NewRateLimited caps the rate of checks sent to next. rps <= 0 returns next
// unchanged.
func NewRateLimited(next Checker, rps float64, burst int) Checker {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (c *rateLimited) CanView(ctx context.Context, userID, resourceID string) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}
	return c.next.CanView(ctx, userID, resourceID)
}
