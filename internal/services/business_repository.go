package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	apperrors "github.com/pratik-mahalle/bizrec/internal/pkg/errors"
	"github.com/pratik-mahalle/bizrec/internal/pkg/logger"
	"github.com/pratik-mahalle/bizrec/internal/pkg/metrics"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

type businessRef struct {
	ID string `json:"business_id" validate:"required"`
}

// BusinessRepository owns the local copy of business entities. The copy is replaced as a
// whole, and only by the response of the latest issued list call; nothing is inserted
// locally before the service confirms it.
//
// At most one mutating call is in flight per repository. A concurrent mutation is rejected
// with a BUSY failure rather than queued.
type BusinessRepository struct {
	api BusinessAPI
	log *logger.Logger

	listFence   Fence
	mutationSeq atomic.Uint64
	mutating    atomic.Bool

	mu         sync.RWMutex
	businesses []client.Business
	loaded     bool
	status     Status
}

// NewBusinessRepository creates a repository backed by api
func NewBusinessRepository(api BusinessAPI, log *logger.Logger) *BusinessRepository {
	return &BusinessRepository{
		api: api,
		log: log.With("component", "business_repository"),
	}
}

// Businesses returns a copy of the last published list
func (r *BusinessRepository) Businesses() []client.Business {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneBusinesses(r.businesses)
}

// Loaded reports whether any list response has been published yet
func (r *BusinessRepository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// LastStatus returns the outcome of the most recent published operation
func (r *BusinessRepository) LastStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Mutating reports whether a create/update/delete is in flight
func (r *BusinessRepository) Mutating() bool {
	return r.mutating.Load()
}

func (r *BusinessRepository) setStatus(st Status) {
	r.mu.Lock()
	r.status = st
	r.mu.Unlock()
}

// List fetches the full collection and, if no newer list was issued meanwhile, replaces the
// cache with it. The returned slice is in service order.
func (r *BusinessRepository) List(ctx context.Context) ([]client.Business, Status) {
	seq := r.listFence.Issue()
	ctx, c := startCall(ctx, r.log, "list_businesses", seq)

	businesses, err := r.api.List(ctx)
	if err != nil {
		err = apperrors.FromRemote("list businesses", err)
	}
	c.finish(err)

	var published []client.Business
	var st Status
	committed := r.listFence.Commit(seq, func() {
		if err != nil {
			st = failed(seq, "Failed to load businesses", err)
			r.setStatus(st)
			return
		}
		st = succeeded(seq, fmt.Sprintf("Loaded %d businesses", len(businesses)))
		r.mu.Lock()
		r.businesses = cloneBusinesses(businesses)
		r.loaded = true
		r.status = st
		r.mu.Unlock()
		metrics.SetCachedBusinesses(len(businesses))
		published = cloneBusinesses(businesses)
	})
	if !committed {
		c.superseded()
		return nil, failed(seq, "Business list discarded", apperrors.Superseded("list_businesses", seq))
	}

	return published, st
}

// Create submits a new business and then refreshes the list
func (r *BusinessRepository) Create(ctx context.Context, draft client.BusinessDraft) (*client.Business, Status) {
	var created *client.Business
	st := r.mutate(ctx, "create_business", "Business created", "Failed to create business", true,
		func(ctx context.Context) error {
			b, err := r.api.Create(ctx, draft)
			created = b
			return err
		})
	if !st.OK {
		return nil, st
	}
	return created, st
}

// Update replaces all editable fields of business id and then refreshes the list
func (r *BusinessRepository) Update(ctx context.Context, id string, draft client.BusinessDraft) (*client.Business, Status) {
	if err := checkInput(businessRef{ID: id}); err != nil {
		return nil, failed(0, "Failed to update business", err)
	}

	var updated *client.Business
	st := r.mutate(ctx, "update_business", "Business updated", "Failed to update business", true,
		func(ctx context.Context) error {
			b, err := r.api.Update(ctx, id, draft)
			updated = b
			return err
		})
	if !st.OK {
		return nil, st
	}
	return updated, st
}

// Delete removes business id and then refreshes the list
func (r *BusinessRepository) Delete(ctx context.Context, id string) Status {
	if err := checkInput(businessRef{ID: id}); err != nil {
		return failed(0, "Failed to delete business", err)
	}

	return r.mutate(ctx, "delete_business", "Business deleted", "Failed to delete business", true,
		func(ctx context.Context) error {
			return r.api.Delete(ctx, id)
		})
}

// ClearData removes the dataset and model of business id. The entity list is unaffected.
func (r *BusinessRepository) ClearData(ctx context.Context, id string) (*client.ClearDataResponse, Status) {
	if err := checkInput(businessRef{ID: id}); err != nil {
		return nil, failed(0, "Failed to clear business data", err)
	}

	var resp *client.ClearDataResponse
	st := r.mutate(ctx, "clear_business_data", "Business data cleared", "Failed to clear business data", false,
		func(ctx context.Context) error {
			res, err := r.api.ClearData(ctx, id)
			resp = res
			return err
		})
	if !st.OK {
		return nil, st
	}
	return resp, st
}

func (r *BusinessRepository) mutate(
	ctx context.Context,
	operation, okMsg, failMsg string,
	refresh bool,
	fn func(ctx context.Context) error,
) Status {
	if !r.mutating.CompareAndSwap(false, true) {
		metrics.RecordBusyRejection()
		r.log.With("operation", operation).Warn("mutation rejected: another one is in flight")
		return failed(0, failMsg, apperrors.Busy("business"))
	}
	defer r.mutating.Store(false)

	seq := r.mutationSeq.Add(1)
	callCtx, c := startCall(ctx, r.log, operation, seq)
	err := fn(callCtx)
	if err != nil {
		err = apperrors.FromRemote(operation, err)
	}
	c.finish(err)

	if err != nil {
		st := failed(seq, failMsg, err)
		r.setStatus(st)
		return st
	}

	if refresh {
		// A superseded refresh is fine: the newer list call will publish.
		if _, listSt := r.List(ctx); !listSt.OK && !listSt.Superseded() {
			st := failed(seq, okMsg+", but refreshing the business list failed", listSt.Err)
			r.setStatus(st)
			return st
		}
	}

	st := succeeded(seq, okMsg)
	r.setStatus(st)
	return st
}

// Get fetches one business without touching the cache
func (r *BusinessRepository) Get(ctx context.Context, id string) (*client.Business, Status) {
	if err := checkInput(businessRef{ID: id}); err != nil {
		return nil, failed(0, "Failed to load business", err)
	}

	ctx, c := startCall(ctx, r.log, "get_business", 0)
	b, err := r.api.Get(ctx, id)
	if err != nil {
		err = apperrors.FromRemote("get business", err)
	}
	c.finish(err)
	if err != nil {
		return nil, failed(0, "Failed to load business", err)
	}
	return b, succeeded(0, "Business loaded")
}

// Status reports whether business id has data and a trained model
func (r *BusinessRepository) Status(ctx context.Context, id string) (*client.BusinessStatus, Status) {
	if err := checkInput(businessRef{ID: id}); err != nil {
		return nil, failed(0, "Failed to load business status", err)
	}

	ctx, c := startCall(ctx, r.log, "business_status", 0)
	s, err := r.api.Status(ctx, id)
	if err != nil {
		err = apperrors.FromRemote("business status", err)
	}
	c.finish(err)
	if err != nil {
		return nil, failed(0, "Failed to load business status", err)
	}
	return s, succeeded(0, "Business status loaded")
}

// Items lists catalog entries of business id
func (r *BusinessRepository) Items(ctx context.Context, id string, limit int) ([]client.Item, Status) {
	if err := checkInput(businessRef{ID: id}); err != nil {
		return nil, failed(0, "Failed to list items", err)
	}

	ctx, c := startCall(ctx, r.log, "list_items", 0)
	items, err := r.api.Items(ctx, id, limit)
	if err != nil {
		err = apperrors.FromRemote("list items", err)
	}
	c.finish(err)
	if err != nil {
		return nil, failed(0, "Failed to list items", err)
	}
	return items, succeeded(0, fmt.Sprintf("Loaded %d items", len(items)))
}

func cloneBusinesses(in []client.Business) []client.Business {
	if in == nil {
		return nil
	}
	out := make([]client.Business, len(in))
	copy(out, in)
	return out
}
