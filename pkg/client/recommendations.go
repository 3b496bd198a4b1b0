package client

import (
	"context"
	"net/http"
	"net/url"
)

// RecommendationService handles recommendation queries
type RecommendationService struct {
	client *Client
}

// Recommend retrieves the top-k items related to itemIndex. Range checks belong to the service.
func (s *RecommendationService) Recommend(ctx context.Context, businessID, itemIndex string, k int) (*RecommendationResult, error) {
	query := url.Values{}
	query.Set("k", itoa(k))
	path := businessPath(businessID) + "/recommend/" + url.PathEscape(itemIndex) + "?" + query.Encode()

	var result RecommendationResult
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
