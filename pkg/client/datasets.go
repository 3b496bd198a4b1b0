package client

import (
	"context"
	"io"
)

// DatasetService handles dataset ingestion
type DatasetService struct {
	client *Client
}

// Upload sends content as the multipart field "file". The service owns all format checks.
func (s *DatasetService) Upload(ctx context.Context, businessID, filename string, content io.Reader) (*Ack, error) {
	var ack Ack
	if err := s.client.doMultipart(ctx, businessPath(businessID)+"/upload-data", "file", filename, content, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}
