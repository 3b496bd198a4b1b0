package client

import (
	"context"
	"net/http"
)

// TrainingService submits model training jobs
type TrainingService struct {
	client *Client
}

// Train submits a training job. The acknowledgement is the only signal the service sends.
func (s *TrainingService) Train(ctx context.Context, businessID string, req TrainRequest) (*TrainResponse, error) {
	var resp TrainResponse
	if err := s.client.doRequest(ctx, http.MethodPost, businessPath(businessID)+"/train", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
