package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apperrors "github.com/pratik-mahalle/bizrec/internal/pkg/errors"
	"github.com/pratik-mahalle/bizrec/internal/pkg/logger"
	"github.com/pratik-mahalle/bizrec/internal/pkg/metrics"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

// DefaultPollInterval paces Await when no interval is configured
const DefaultPollInterval = 2 * time.Second

// MaxJobHistory bounds the jobs a coordinator remembers; older ones are dropped first.
const MaxJobHistory = 100

// TrainingOptions are the parameters of one training job
type TrainingOptions struct {
	NSamples   int  `json:"n_samples"`
	UseTabular bool `json:"use_tabular"`
	UseText    bool `json:"use_text"`
	NNeighbors int  `json:"n_neighbors,omitempty"`
}

// DefaultTrainingOptions returns the options used when the operator changes nothing
func DefaultTrainingOptions() TrainingOptions {
	return TrainingOptions{
		NSamples:   client.DefaultNSamples,
		UseTabular: true,
		UseText:    true,
		NNeighbors: client.DefaultNNeighbors,
	}
}

func (o TrainingOptions) request() client.TrainRequest {
	return client.TrainRequest{
		NSamples:   o.NSamples,
		UseTabular: o.UseTabular,
		UseText:    o.UseText,
		NNeighbors: o.NNeighbors,
	}
}

// JobState is the lifecycle state of a training job
type JobState string

// Job states
const (
	JobSubmitted JobState = "submitted"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

var jobTransitions = map[JobState][]JobState{
	JobSubmitted: {JobRunning, JobFailed},
	JobRunning:   {JobSucceeded, JobFailed},
}

// Terminal reports whether no further transition is possible
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

func (s JobState) canMoveTo(to JobState) bool {
	for _, next := range jobTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Job tracks one training submission
type Job struct {
	ID          string                `json:"id" yaml:"id"`
	BusinessID  string                `json:"business_id" yaml:"business_id"`
	Options     TrainingOptions       `json:"options" yaml:"options"`
	State       JobState              `json:"state" yaml:"state"`
	Seq         uint64                `json:"seq" yaml:"seq"`
	Ack         *client.TrainResponse `json:"ack,omitempty" yaml:"ack,omitempty"`
	Error       string                `json:"error,omitempty" yaml:"error,omitempty"`
	SubmittedAt time.Time             `json:"submitted_at" yaml:"submitted_at"`
	UpdatedAt   time.Time             `json:"updated_at" yaml:"updated_at"`
}

func (j *Job) moveTo(to JobState) error {
	if !j.State.canMoveTo(to) {
		return fmt.Errorf("invalid job transition %s -> %s", j.State, to)
	}
	j.State = to
	j.UpdatedAt = time.Now()
	return nil
}

type trainingInput struct {
	BusinessID string `json:"business_id" validate:"required"`
}

// TrainingCoordinator submits training jobs and follows them through their states
type TrainingCoordinator struct {
	api          TrainingAPI
	status       StatusAPI
	pollInterval time.Duration
	log          *logger.Logger

	fence Fence

	mu     sync.RWMutex
	jobs   []*Job
	latest *Job
	last   Status
}

// NewTrainingCoordinator creates a training coordinator. status may be nil when Await is
// never used.
func NewTrainingCoordinator(api TrainingAPI, status StatusAPI, pollInterval time.Duration, log *logger.Logger) *TrainingCoordinator {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &TrainingCoordinator{
		api:          api,
		status:       status,
		pollInterval: pollInterval,
		log:          log.With("component", "training_coordinator"),
	}
}

// Submit sends one training job for businessID. The service acknowledgement is the
// terminal signal of the job.
func (t *TrainingCoordinator) Submit(ctx context.Context, businessID string, opts TrainingOptions) (*Job, Status) {
	if err := checkInput(trainingInput{BusinessID: businessID}); err != nil {
		st := failed(0, "Training rejected", err)
		seq := t.fence.Issue()
		t.fence.Commit(seq, func() { t.setLast(st) })
		return nil, st
	}

	seq := t.fence.Issue()
	now := time.Now()
	job := &Job{
		ID:          uuid.NewString(),
		BusinessID:  businessID,
		Options:     opts,
		State:       JobSubmitted,
		Seq:         seq,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	t.mu.Lock()
	t.jobs = append(t.jobs, job)
	if len(t.jobs) > MaxJobHistory {
		t.jobs = append(t.jobs[:0:0], t.jobs[len(t.jobs)-MaxJobHistory:]...)
	}
	t.mu.Unlock()

	ctx, c := startCall(ctx, t.log, "train_model", seq)
	t.advance(job, JobRunning, nil, nil)

	ack, err := t.api.Train(ctx, businessID, opts.request())
	if err != nil {
		err = apperrors.FromRemote("train model", err)
	}
	c.finish(err)

	var st Status
	if err != nil {
		t.advance(job, JobFailed, nil, err)
		st = failed(seq, "Training failed", err)
	} else {
		t.advance(job, JobSucceeded, ack, nil)
		st = succeeded(seq, trainingMessage(ack))
	}

	snapshot := t.snapshot(job)
	committed := t.fence.Commit(seq, func() {
		t.mu.Lock()
		t.latest = job
		t.last = st
		t.mu.Unlock()
	})
	if !committed {
		c.superseded()
		return snapshot, failed(seq, "Training result discarded", apperrors.Superseded("train_model", seq))
	}
	return snapshot, st
}

// Await polls the business status until a trained model is reported or ctx is done.
// Polls are paced by the configured interval. A failed poll ends the wait.
func (t *TrainingCoordinator) Await(ctx context.Context, businessID string) (*client.BusinessStatus, Status) {
	if err := checkInput(trainingInput{BusinessID: businessID}); err != nil {
		return nil, failed(0, "Wait rejected", err)
	}
	if t.status == nil {
		return nil, failed(0, "Wait rejected", apperrors.Precondition("status polling is not configured", nil))
	}

	limiter := rate.NewLimiter(rate.Every(t.pollInterval), 1)
	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, failed(0, "Stopped waiting for model", apperrors.Network("wait for model", err))
		}

		callCtx, c := startCall(ctx, t.log, "poll_model_status", 0)
		s, err := t.status.Status(callCtx, businessID)
		if err != nil {
			err = apperrors.FromRemote("poll model status", err)
		}
		c.finish(err)
		if err != nil {
			return nil, failed(0, "Failed to poll model status", err)
		}

		if s.HasModel {
			return s, succeeded(0, fmt.Sprintf("Model ready after %d checks", attempt))
		}
		t.log.WithFields(map[string]interface{}{
			"business_id": businessID,
			"attempt":     attempt,
			"has_data":    s.HasData,
		}).Debug("model not ready yet")
	}
}

// Jobs returns copies of the last MaxJobHistory jobs submitted through this coordinator, oldest first
func (t *TrainingCoordinator) Jobs() []Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		out = append(out, *j)
	}
	return out
}

// Latest returns the job of the latest published submission, or nil
func (t *TrainingCoordinator) Latest() *Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.latest == nil {
		return nil
	}
	j := *t.latest
	return &j
}

// LastStatus returns the outcome of the latest published submission
func (t *TrainingCoordinator) LastStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func (t *TrainingCoordinator) setLast(st Status) {
	t.mu.Lock()
	t.last = st
	t.mu.Unlock()
}

func (t *TrainingCoordinator) advance(job *Job, to JobState, ack *client.TrainResponse, cause error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := job.moveTo(to); err != nil {
		t.log.WarnWithErr(err, "training job state unchanged")
		return
	}
	if ack != nil {
		job.Ack = ack
	}
	if cause != nil {
		job.Error = cause.Error()
	}
	if to.Terminal() {
		metrics.RecordTrainingJob(string(to))
	}
	t.log.WithFields(map[string]interface{}{
		"job_id":      job.ID,
		"business_id": job.BusinessID,
		"state":       string(to),
	}).Debug("training job state changed")
}

func (t *TrainingCoordinator) snapshot(job *Job) *Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j := *job
	return &j
}

func trainingMessage(ack *client.TrainResponse) string {
	if ack != nil && ack.ItemsLoaded > 0 {
		return fmt.Sprintf("Model trained on %d items", ack.ItemsLoaded)
	}
	return "Model trained"
}
