package client

import (
	"context"
	"net/http"
	"net/url"
)

// MetricsService handles evaluation metric queries
type MetricsService struct {
	client *Client
}

// Get retrieves ranking-quality metrics at k for a business's model
func (s *MetricsService) Get(ctx context.Context, businessID string, k int) (*MetricsResult, error) {
	query := url.Values{}
	query.Set("k", itoa(k))
	path := businessPath(businessID) + "/metrics?" + query.Encode()

	var result MetricsResult
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
