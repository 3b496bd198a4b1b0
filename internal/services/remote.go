package services

import (
	"context"
	"io"
	"time"

	"github.com/pratik-mahalle/bizrec/internal/pkg/logger"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

// BusinessAPI is the business part of the recommendation service.
// *client.BusinessService implements it.
type BusinessAPI interface {
	List(ctx context.Context) ([]client.Business, error)
	Get(ctx context.Context, id string) (*client.Business, error)
	Create(ctx context.Context, draft client.BusinessDraft) (*client.Business, error)
	Update(ctx context.Context, id string, draft client.BusinessDraft) (*client.Business, error)
	Delete(ctx context.Context, id string) error
	Status(ctx context.Context, id string) (*client.BusinessStatus, error)
	ClearData(ctx context.Context, id string) (*client.ClearDataResponse, error)
	Items(ctx context.Context, id string, limit int) ([]client.Item, error)
}

// StatusAPI reports data/model availability of a business
type StatusAPI interface {
	Status(ctx context.Context, id string) (*client.BusinessStatus, error)
}

// DatasetAPI ingests training data
type DatasetAPI interface {
	Upload(ctx context.Context, businessID, filename string, content io.Reader) (*client.Ack, error)
}

// TrainingAPI submits training jobs
type TrainingAPI interface {
	Train(ctx context.Context, businessID string, req client.TrainRequest) (*client.TrainResponse, error)
}

// RecommendationAPI answers top-k item queries
type RecommendationAPI interface {
	Recommend(ctx context.Context, businessID, itemIndex string, k int) (*client.RecommendationResult, error)
}

// MetricsAPI answers top-k evaluation queries
type MetricsAPI interface {
	Get(ctx context.Context, businessID string, k int) (*client.MetricsResult, error)
}

// Remote bundles every collaborator interface. NewRemote adapts a *client.Client.
type Remote struct {
	Businesses      BusinessAPI
	Datasets        DatasetAPI
	Training        TrainingAPI
	Recommendations RecommendationAPI
	Metrics         MetricsAPI
}

// NewRemote wires the typed client services
func NewRemote(c *client.Client) Remote {
	return Remote{
		Businesses:      c.Businesses(),
		Datasets:        c.Datasets(),
		Training:        c.Training(),
		Recommendations: c.Recommendations(),
		Metrics:         c.Metrics(),
	}
}

// Coordinators is the orchestration layer of one session
type Coordinators struct {
	Businesses      *BusinessRepository
	Uploads         *UploadCoordinator
	Training        *TrainingCoordinator
	Recommendations *RecommendationEngine
	Metrics         *MetricsEngine
}

// NewCoordinators builds every coordinator over remote
func NewCoordinators(remote Remote, pollInterval time.Duration, log *logger.Logger) *Coordinators {
	return &Coordinators{
		Businesses:      NewBusinessRepository(remote.Businesses, log),
		Uploads:         NewUploadCoordinator(remote.Datasets, log),
		Training:        NewTrainingCoordinator(remote.Training, remote.Businesses, pollInterval, log),
		Recommendations: NewRecommendationEngine(remote.Recommendations, log),
		Metrics:         NewMetricsEngine(remote.Metrics, log),
	}
}
