package services

import (
	"context"
	"io"
	"sync"

	apperrors "github.com/pratik-mahalle/bizrec/internal/pkg/errors"
	"github.com/pratik-mahalle/bizrec/internal/pkg/logger"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

// DefaultUploadName is sent when a file carries no name
const DefaultUploadName = "dataset.csv"

// File is a blob selected for upload. Its contents are never inspected locally.
type File struct {
	Name    string    `json:"name"`
	Content io.Reader `json:"content" validate:"required"`
}

type uploadInput struct {
	BusinessID string `json:"business_id" validate:"required"`
	File       *File  `json:"file" validate:"required"`
}

// UploadCoordinator submits training data for a business
type UploadCoordinator struct {
	api DatasetAPI
	log *logger.Logger

	fence Fence

	mu     sync.RWMutex
	status Status
}

// NewUploadCoordinator creates an upload coordinator
func NewUploadCoordinator(api DatasetAPI, log *logger.Logger) *UploadCoordinator {
	return &UploadCoordinator{
		api: api,
		log: log.With("component", "upload_coordinator"),
	}
}

// Submit sends file as the dataset of businessID. An empty id or a missing file fails
// locally with a precondition error.
func (u *UploadCoordinator) Submit(ctx context.Context, businessID string, file *File) Status {
	if err := checkInput(uploadInput{BusinessID: businessID, File: file}); err != nil {
		st := failed(0, "Upload rejected", err)
		u.publish(u.fence.Issue(), st)
		return st
	}

	name := file.Name
	if name == "" {
		name = DefaultUploadName
	}

	seq := u.fence.Issue()
	ctx, c := startCall(ctx, u.log, "upload_dataset", seq)
	ack, err := u.api.Upload(ctx, businessID, name, file.Content)
	if err != nil {
		err = apperrors.FromRemote("upload dataset", err)
	}
	c.finish(err)

	st := succeeded(seq, uploadMessage(ack))
	if err != nil {
		st = failed(seq, "Upload failed", err)
	}

	if !u.publish(seq, st) {
		c.superseded()
		return failed(seq, "Upload result discarded", apperrors.Superseded("upload_dataset", seq))
	}
	return st
}

// LastStatus returns the outcome of the latest submission
func (u *UploadCoordinator) LastStatus() Status {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.status
}

func (u *UploadCoordinator) publish(seq uint64, st Status) bool {
	return u.fence.Commit(seq, func() {
		u.mu.Lock()
		u.status = st
		u.mu.Unlock()
	})
}

func uploadMessage(ack *client.Ack) string {
	if ack != nil && ack.FilePath != "" {
		return "Dataset uploaded to " + ack.FilePath
	}
	return "Dataset uploaded"
}
