package testutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pratik-mahalle/bizrec/pkg/client"
)

// Operation names accepted by FakeService.Fail, Hold and Calls
const (
	OpList      = "list"
	OpGet       = "get"
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpStatus    = "status"
	OpClearData = "clear_data"
	OpItems     = "items"
	OpUpload    = "upload"
	OpTrain     = "train"
	OpRecommend = "recommend"
	OpMetrics   = "metrics"
)

// Gate holds one call of a FakeService operation until released. Responses are computed
// when the call enters, so a held call delivers state as it was at that point.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Entered is closed once the held call has arrived
func (g *Gate) Entered() <-chan struct{} {
	return g.entered
}

// Release lets the held call return
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

// Upload records one dataset submission
type Upload struct {
	BusinessID string
	Filename   string
	Content    []byte
}

// FakeService is an in-memory recommendation service. It implements the business,
// dataset, training and recommendation interfaces; Metrics() adapts the metrics one.
type FakeService struct {
	mu sync.Mutex

	businesses map[string]*client.Business
	order      []string
	nextID     int
	hasData    map[string]bool
	hasModel   map[string]bool

	// Catalog, Recommendations and MetricsResults are keyed by business id;
	// Recommendations additionally by "/"+item index.
	Catalog         map[string][]client.Item
	Recommendations map[string]*client.RecommendationResult
	MetricsResults  map[string]*client.MetricsResult

	Uploads       []Upload
	TrainRequests []client.TrainRequest

	// ModelReadyAfter is the number of status polls after a training request before
	// has_model turns true.
	ModelReadyAfter int
	statusPolls     map[string]int

	calls map[string]int
	errs  map[string]error
	gates map[string][]*Gate
}

// NewFakeService creates an empty fake service
func NewFakeService() *FakeService {
	return &FakeService{
		businesses:      make(map[string]*client.Business),
		nextID:          1,
		hasData:         make(map[string]bool),
		hasModel:        make(map[string]bool),
		Catalog:         make(map[string][]client.Item),
		Recommendations: make(map[string]*client.RecommendationResult),
		MetricsResults:  make(map[string]*client.MetricsResult),
		statusPolls:     make(map[string]int),
		calls:           make(map[string]int),
		errs:            make(map[string]error),
		gates:           make(map[string][]*Gate),
	}
}

// Seed stores a business directly and returns its assigned id
func (f *FakeService) Seed(draft client.BusinessDraft) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(draft).ID.String()
}

// Fail makes every later call of op return err. A nil err clears it.
func (f *FakeService) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// Hold queues a gate for the next call of op
func (f *FakeService) Hold(op string) *Gate {
	g := &Gate{entered: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.gates[op] = append(f.gates[op], g)
	f.mu.Unlock()
	return g
}

// Calls returns how many times op was invoked
func (f *FakeService) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of invocations of every operation
func (f *FakeService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// NotFound builds the error the service returns for an unknown business
func NotFound(id string) error {
	return &client.APIError{
		StatusCode: http.StatusNotFound,
		Detail:     []byte(strconv.Quote("Business " + id + " not found")),
	}
}

// Unprocessable builds the error the service returns for a rejected payload
func Unprocessable(detail string) error {
	return &client.APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Detail:     []byte(strconv.Quote(detail)),
	}
}

// begin counts the call and takes its queued gate and injected error under the lock
func (f *FakeService) begin(op string) (*Gate, error) {
	f.calls[op]++
	var g *Gate
	if q := f.gates[op]; len(q) > 0 {
		g = q[0]
		f.gates[op] = q[1:]
	}
	return g, f.errs[op]
}

// wait blocks on g, if any, after the lock is released
func wait(ctx context.Context, g *Gate) error {
	if g == nil {
		return nil
	}
	close(g.entered)
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FakeService) insert(draft client.BusinessDraft) *client.Business {
	id := strconv.Itoa(f.nextID)
	f.nextID++
	now := time.Now().UTC()
	b := &client.Business{
		ID:           client.ID(id),
		Name:         draft.Name,
		Industry:     draft.Industry,
		ContactEmail: draft.ContactEmail,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
	f.businesses[id] = b
	f.order = append(f.order, id)
	return b
}

func (f *FakeService) lookup(id string) (*client.Business, error) {
	b, ok := f.businesses[id]
	if !ok {
		return nil, NotFound(id)
	}
	return b, nil
}

// List returns every business in insertion order
func (f *FakeService) List(ctx context.Context) ([]client.Business, error) {
	f.mu.Lock()
	g, err := f.begin(OpList)
	out := make([]client.Business, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, *f.businesses[id])
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return nil, werr
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one business
func (f *FakeService) Get(ctx context.Context, id string) (*client.Business, error) {
	f.mu.Lock()
	g, err := f.begin(OpGet)
	var out *client.Business
	if err == nil {
		var b *client.Business
		if b, err = f.lookup(id); err == nil {
			cp := *b
			out = &cp
		}
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return nil, werr
	}
	return out, err
}

// Create stores a new business with the next numeric id
func (f *FakeService) Create(ctx context.Context, draft client.BusinessDraft) (*client.Business, error) {
	f.mu.Lock()
	g, err := f.begin(OpCreate)
	var out *client.Business
	if err == nil {
		cp := *f.insert(draft)
		out = &cp
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return nil, werr
	}
	return out, err
}

// Update replaces the editable fields of a business
func (f *FakeService) Update(ctx context.Context, id string, draft client.BusinessDraft) (*client.Business, error) {
	f.mu.Lock()
	g, err := f.begin(OpUpdate)
	var out *client.Business
	if err == nil {
		var b *client.Business
		if b, err = f.lookup(id); err == nil {
			now := time.Now().UTC()
			b.Name = draft.Name
			b.Industry = draft.Industry
			b.ContactEmail = draft.ContactEmail
			b.UpdatedAt = &now
			cp := *b
			out = &cp
		}
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return nil, werr
	}
	return out, err
}

// Delete removes a business and everything stored for it
func (f *FakeService) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	g, err := f.begin(OpDelete)
	if err == nil {
		if _, err = f.lookup(id); err == nil {
			delete(f.businesses, id)
			for i, oid := range f.order {
				if oid == id {
					f.order = append(f.order[:i], f.order[i+1:]...)
					break
				}
			}
			delete(f.hasData, id)
			delete(f.hasModel, id)
			delete(f.MetricsResults, id)
		}
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return werr
	}
	return err
}

// Status reports data and model availability. With ModelReadyAfter set, has_model flips to
// true on that poll.
func (f *FakeService) Status(ctx context.Context, id string) (*client.BusinessStatus, error) {
	f.mu.Lock()
	g, err := f.begin(OpStatus)
	var out *client.BusinessStatus
	if err == nil {
		var b *client.Business
		if b, err = f.lookup(id); err == nil {
			f.statusPolls[id]++
			if f.ModelReadyAfter > 0 && f.statusPolls[id] >= f.ModelReadyAfter && f.hasData[id] {
				f.hasModel[id] = true
			}
			out = &client.BusinessStatus{
				BusinessID: b.ID,
				Name:       b.Name,
				HasData:    f.hasData[id],
				HasModel:   f.hasModel[id],
			}
		}
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return nil, werr
	}
	return out, err
}

// ClearData drops the dataset and model flags of a business
func (f *FakeService) ClearData(ctx context.Context, id string) (*client.ClearDataResponse, error) {
	f.mu.Lock()
	g, err := f.begin(OpClearData)
	var out *client.ClearDataResponse
	if err == nil {
		if _, err = f.lookup(id); err == nil {
			var deleted []string
			if f.hasData[id] {
				deleted = append(deleted, "business_"+id+".csv")
			}
			if f.hasModel[id] {
				deleted = append(deleted, "business_"+id+"_model.pkl")
			}
			delete(f.hasData, id)
			delete(f.hasModel, id)
			out = &client.ClearDataResponse{Status: "cleared", DeletedFiles: deleted}
		}
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return nil, werr
	}
	return out, err
}

// Items returns up to limit catalog entries
func (f *FakeService) Items(ctx context.Context, id string, limit int) ([]client.Item, error) {
	f.mu.Lock()
	g, err := f.begin(OpItems)
	var out []client.Item
	if err == nil {
		if _, err = f.lookup(id); err == nil {
			out = append(out, f.Catalog[id]...)
			if limit > 0 && len(out) > limit {
				out = out[:limit]
			}
		}
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return nil, werr
	}
	return out, err
}

// Upload records the submitted file and marks the business as having data
func (f *FakeService) Upload(ctx context.Context, businessID, filename string, content io.Reader) (*client.Ack, error) {
	data, rerr := io.ReadAll(content)
	if rerr != nil {
		return nil, fmt.Errorf("read upload: %w", rerr)
	}

	f.mu.Lock()
	g, err := f.begin(OpUpload)
	var out *client.Ack
	if err == nil {
		if _, err = f.lookup(businessID); err == nil {
			f.Uploads = append(f.Uploads, Upload{BusinessID: businessID, Filename: filename, Content: data})
			f.hasData[businessID] = true
			out = &client.Ack{Status: "uploaded", FilePath: "data/business_" + businessID + ".csv"}
		}
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return nil, werr
	}
	return out, err
}

// Train records the request. Without ModelReadyAfter the model is ready immediately.
func (f *FakeService) Train(ctx context.Context, businessID string, req client.TrainRequest) (*client.TrainResponse, error) {
	f.mu.Lock()
	g, err := f.begin(OpTrain)
	var out *client.TrainResponse
	if err == nil {
		if _, err = f.lookup(businessID); err == nil {
			f.TrainRequests = append(f.TrainRequests, req)
			f.statusPolls[businessID] = 0
			if f.ModelReadyAfter == 0 {
				f.hasModel[businessID] = true
			}
			out = &client.TrainResponse{
				Status:      "trained",
				ItemsLoaded: req.NSamples,
				Modalities:  &client.Modalities{Tabular: req.UseTabular, Text: req.UseText},
			}
		}
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return nil, werr
	}
	return out, err
}

// Recommend returns the stored result for businessID/itemIndex, truncated to k
func (f *FakeService) Recommend(ctx context.Context, businessID, itemIndex string, k int) (*client.RecommendationResult, error) {
	f.mu.Lock()
	g, err := f.begin(OpRecommend)
	var out *client.RecommendationResult
	if err == nil {
		res, ok := f.Recommendations[businessID+"/"+itemIndex]
		if !ok {
			err = &client.APIError{StatusCode: http.StatusNotFound, Detail: []byte(`"Item not found"`)}
		} else {
			cp := *res
			cp.Recommendations = append([]client.Recommendation(nil), res.Recommendations...)
			if k > 0 && len(cp.Recommendations) > k {
				cp.Recommendations = cp.Recommendations[:k]
			}
			out = &cp
		}
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return nil, werr
	}
	return out, err
}

// Metrics returns the metrics API view of f
func (f *FakeService) Metrics() *FakeMetrics {
	return &FakeMetrics{f: f}
}

// FakeMetrics serves MetricsResults of its FakeService
type FakeMetrics struct {
	f *FakeService
}

// Get returns the stored metrics of businessID with K set to k
func (m *FakeMetrics) Get(ctx context.Context, businessID string, k int) (*client.MetricsResult, error) {
	f := m.f
	f.mu.Lock()
	g, err := f.begin(OpMetrics)
	var out *client.MetricsResult
	if err == nil {
		res, ok := f.MetricsResults[businessID]
		if !ok {
			err = NotFound(businessID)
		} else {
			cp := *res
			cp.K = k
			out = &cp
		}
	}
	f.mu.Unlock()

	if werr := wait(ctx, g); werr != nil {
		return nil, werr
	}
	return out, err
}
