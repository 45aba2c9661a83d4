package cache

import (
	"context"
	"time"

	"github.com/prepvoice/prepvoice/internal/models"
)

// ScorecardStash hands a freshly generated scorecard from the session
// controller to the results view. Entries are transient and session-scoped;
// the durable copy lives in the interview/feedback records.
type ScorecardStash struct {
	c   Cache
	ttl time.Duration
}

func NewScorecardStash(c Cache, ttl time.Duration) *ScorecardStash {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ScorecardStash{c: c, ttl: ttl}
}

func (s *ScorecardStash) Put(ctx context.Context, sessionID string, sc *models.Scorecard) error {
	return s.c.SetJSON(ctx, stashKey(sessionID), sc, s.ttl)
}

func (s *ScorecardStash) Get(ctx context.Context, sessionID string) (*models.Scorecard, bool, error) {
	var sc models.Scorecard
	hit, err := s.c.GetJSON(ctx, stashKey(sessionID), &sc)
	if err != nil || !hit {
		return nil, false, err
	}
	return &sc, true, nil
}

func stashKey(sessionID string) string { return "scorecard:" + sessionID }
