package client

import (
	"context"
	"net/http"
	"net/url"
)

// BusinessService handles business-related API calls
type BusinessService struct {
	client *Client
}

func businessPath(id string) string {
	return "/businesses/" + url.PathEscape(id)
}

// List retrieves every business, in the order the service returns them
func (s *BusinessService) List(ctx context.Context) ([]Business, error) {
	var businesses []Business
	if err := s.client.doRequest(ctx, http.MethodGet, "/businesses", nil, &businesses); err != nil {
		return nil, err
	}
	if businesses == nil {
		businesses = []Business{}
	}
	return businesses, nil
}

// Get retrieves a single business by ID
func (s *BusinessService) Get(ctx context.Context, id string) (*Business, error) {
	var business Business
	if err := s.client.doRequest(ctx, http.MethodGet, businessPath(id), nil, &business); err != nil {
		return nil, err
	}
	return &business, nil
}

// Create registers a new business; the service assigns its ID
func (s *BusinessService) Create(ctx context.Context, draft BusinessDraft) (*Business, error) {
	var business Business
	if err := s.client.doRequest(ctx, http.MethodPost, "/businesses", draft, &business); err != nil {
		return nil, err
	}
	return &business, nil
}

// Update replaces the editable fields of a business
func (s *BusinessService) Update(ctx context.Context, id string, draft BusinessDraft) (*Business, error) {
	var business Business
	if err := s.client.doRequest(ctx, http.MethodPut, businessPath(id), draft, &business); err != nil {
		return nil, err
	}
	return &business, nil
}

// Delete deletes a business
func (s *BusinessService) Delete(ctx context.Context, id string) error {
	var ack Ack
	return s.client.doRequest(ctx, http.MethodDelete, businessPath(id), nil, &ack)
}

// Status reports whether the business has uploaded data and a trained model
func (s *BusinessService) Status(ctx context.Context, id string) (*BusinessStatus, error) {
	var status BusinessStatus
	if err := s.client.doRequest(ctx, http.MethodGet, businessPath(id)+"/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ClearData removes the uploaded dataset and trained model of a business
func (s *BusinessService) ClearData(ctx context.Context, id string) (*ClearDataResponse, error) {
	var resp ClearDataResponse
	if err := s.client.doRequest(ctx, http.MethodDelete, businessPath(id)+"/data", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Items lists the first limit catalog entries of a business. A limit of zero uses the
// service default.
func (s *BusinessService) Items(ctx context.Context, id string, limit int) ([]Item, error) {
	path := businessPath(id) + "/items"
	if limit > 0 {
		query := url.Values{}
		query.Set("limit", itoa(limit))
		path += "?" + query.Encode()
	}

	var items []Item
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}
