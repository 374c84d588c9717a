package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claimguard/insurance-fraud-backend/internal/service/riskscoring"
)

// AssessmentCache stores computed risk assessments so repeated decision
// requests for the same claim skip the scoring pass. A miss is reported as
// (nil, nil) so callers fall through to recompute.
type AssessmentCache struct {
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewAssessmentCache(cache Cache, ttl time.Duration, logger *zap.Logger) *AssessmentCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = AssessmentTTL
	}
	return &AssessmentCache{cache: cache, ttl: ttl, logger: logger}
}

func (c *AssessmentCache) Get(ctx context.Context, claimID uuid.UUID) (*riskscoring.Assessment, error) {
	var a riskscoring.Assessment
	err := c.cache.GetJSON(ctx, assessmentKey(claimID), &a)
	if err != nil {
		var notFound ErrCacheKeyNotFound
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (c *AssessmentCache) Set(ctx context.Context, claimID uuid.UUID, a *riskscoring.Assessment) error {
	if err := c.cache.SetJSON(ctx, assessmentKey(claimID), a, c.ttl); err != nil {
		return err
	}
	c.logger.Debug("assessment cached",
		zap.String("claim_id", claimID.String()),
		zap.Float64("score", a.Score))
	return nil
}

func (c *AssessmentCache) Invalidate(ctx context.Context, claimID uuid.UUID) error {
	return c.cache.Delete(ctx, assessmentKey(claimID))
}

func assessmentKey(claimID uuid.UUID) string {
	return AssessmentPrefix + claimID.String()
}
