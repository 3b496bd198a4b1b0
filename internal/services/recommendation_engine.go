package services

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/pratik-mahalle/bizrec/internal/pkg/errors"
	"github.com/pratik-mahalle/bizrec/internal/pkg/logger"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

type recommendationInput struct {
	BusinessID string `json:"business_id" validate:"required"`
	ItemIndex  string `json:"item_index" validate:"required"`
}

// RecommendationEngine runs top-k recommendation queries. Results are returned exactly as
// the service ordered them.
type RecommendationEngine struct {
	api RecommendationAPI
	log *logger.Logger

	fence Fence

	mu     sync.RWMutex
	result *client.RecommendationResult
	status Status
}

// NewRecommendationEngine creates a recommendation query engine
func NewRecommendationEngine(api RecommendationAPI, log *logger.Logger) *RecommendationEngine {
	return &RecommendationEngine{
		api: api,
		log: log.With("component", "recommendation_engine"),
	}
}

// Query asks for the k items closest to itemIndex in the catalog of businessID. k and
// itemIndex are passed through; the service owns range checks.
func (e *RecommendationEngine) Query(ctx context.Context, businessID, itemIndex string, k int) (*client.RecommendationResult, Status) {
	if err := checkInput(recommendationInput{BusinessID: businessID, ItemIndex: itemIndex}); err != nil {
		st := failed(0, "Query rejected", err)
		seq := e.fence.Issue()
		e.fence.Commit(seq, func() { e.publish(nil, st) })
		return nil, st
	}

	seq := e.fence.Issue()
	ctx, c := startCall(ctx, e.log, "recommend", seq)
	result, err := e.api.Recommend(ctx, businessID, itemIndex, k)
	if err != nil {
		err = apperrors.FromRemote("recommend", err)
	} else if result == nil {
		err = apperrors.New(apperrors.ErrCodeNetwork, "recommend: service returned no result")
	}
	c.finish(err)

	st := failed(seq, "Recommendation query failed", err)
	if err == nil {
		st = succeeded(seq, fmt.Sprintf("%d recommendations for %s", len(result.Recommendations), result.ProductName))
	}

	if !e.fence.Commit(seq, func() { e.publish(result, st) }) {
		c.superseded()
		return nil, failed(seq, "Recommendation result discarded", apperrors.Superseded("recommend", seq))
	}
	if err != nil {
		return nil, st
	}
	return result, st
}

// Latest returns the last published result; nil after a failed query
func (e *RecommendationEngine) Latest() (*client.RecommendationResult, Status) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.result, e.status
}

func (e *RecommendationEngine) publish(result *client.RecommendationResult, st Status) {
	e.mu.Lock()
	e.result = result
	e.status = st
	e.mu.Unlock()
}
