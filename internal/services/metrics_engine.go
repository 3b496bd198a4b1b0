package services

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/pratik-mahalle/bizrec/internal/pkg/errors"
	"github.com/pratik-mahalle/bizrec/internal/pkg/logger"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

// Indicator is one rendered ranking-quality measure
type Indicator struct {
	Name  string  `json:"name" yaml:"name"`
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// Formatted renders the value with three decimals
func (i Indicator) Formatted() string {
	return fmt.Sprintf("%.3f", i.Value)
}

// Indicators returns the measures present in result, in a fixed order. Absent measures
// produce no indicator.
func Indicators(result *client.MetricsResult) []Indicator {
	if result == nil {
		return nil
	}

	fields := []struct {
		name  string
		label string
		value *float64
	}{
		{"precision_at_k", "Precision", result.PrecisionAtK},
		{"recall_at_k", "Recall", result.RecallAtK},
		{"map_at_k", "MAP", result.MAPAtK},
		{"mrr_at_k", "MRR", result.MRRAtK},
		{"diversity_at_k", "Diversity", result.DiversityAtK},
	}

	var out []Indicator
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		out = append(out, Indicator{
			Name:  f.name,
			Label: fmt.Sprintf("%s@%d", f.label, result.K),
			Value: *f.value,
		})
	}
	return out
}

type metricsInput struct {
	BusinessID string `json:"business_id" validate:"required"`
}

// MetricsEngine runs top-k evaluation queries
type MetricsEngine struct {
	api MetricsAPI
	log *logger.Logger

	fence Fence

	mu     sync.RWMutex
	result *client.MetricsResult
	status Status
}

// NewMetricsEngine creates a metrics query engine
func NewMetricsEngine(api MetricsAPI, log *logger.Logger) *MetricsEngine {
	return &MetricsEngine{
		api: api,
		log: log.With("component", "metrics_engine"),
	}
}

// Query fetches evaluation measures at k for businessID
func (e *MetricsEngine) Query(ctx context.Context, businessID string, k int) (*client.MetricsResult, Status) {
	if err := checkInput(metricsInput{BusinessID: businessID}); err != nil {
		st := failed(0, "Query rejected", err)
		seq := e.fence.Issue()
		e.fence.Commit(seq, func() { e.publish(nil, st) })
		return nil, st
	}

	seq := e.fence.Issue()
	ctx, c := startCall(ctx, e.log, "metrics", seq)
	result, err := e.api.Get(ctx, businessID, k)
	if err != nil {
		err = apperrors.FromRemote("metrics", err)
	} else if result == nil {
		err = apperrors.New(apperrors.ErrCodeNetwork, "metrics: service returned no result")
	}
	c.finish(err)

	st := failed(seq, "Metrics query failed", err)
	if err == nil {
		st = succeeded(seq, fmt.Sprintf("%d metrics at k=%d", len(Indicators(result)), result.K))
	}

	if !e.fence.Commit(seq, func() { e.publish(result, st) }) {
		c.superseded()
		return nil, failed(seq, "Metrics result discarded", apperrors.Superseded("metrics", seq))
	}
	if err != nil {
		return nil, st
	}
	return result, st
}

// Latest returns the last published result; nil after a failed query
func (e *MetricsEngine) Latest() (*client.MetricsResult, Status) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.result, e.status
}

func (e *MetricsEngine) publish(result *client.MetricsResult, st Status) {
	e.mu.Lock()
	e.result = result
	e.status = st
	e.mu.Unlock()
}
