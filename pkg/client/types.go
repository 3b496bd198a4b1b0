package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is an opaque identifier assigned by the service. The service may encode it as a JSON
// number or string; the client always treats it as a string.
type ID string

// UnmarshalJSON accepts both string and number encodings
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Business represents a tenant of the recommendation service
type Business struct {
	ID           ID         `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Industry     string     `json:"industry" yaml:"industry"`
	ContactEmail string     `json:"contact_email" yaml:"contact_email"`
	CreatedAt    *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Draft returns the editable fields of b
func (b Business) Draft() BusinessDraft {
	return BusinessDraft{Name: b.Name, Industry: b.Industry, ContactEmail: b.ContactEmail}
}

// BusinessDraft holds the editable fields of a business. Update replaces all three.
type BusinessDraft struct {
	Name         string `json:"name" yaml:"name"`
	Industry     string `json:"industry" yaml:"industry"`
	ContactEmail string `json:"contact_email" yaml:"contact_email"`
}

// BusinessStatus reports whether a business has data and a trained model
type BusinessStatus struct {
	BusinessID ID     `json:"business_id" yaml:"business_id"`
	Name       string `json:"name" yaml:"name"`
	HasData    bool   `json:"has_data" yaml:"has_data"`
	HasModel   bool   `json:"has_model" yaml:"has_model"`
}

// ClearDataResponse is returned when a business's dataset and model are removed
type ClearDataResponse struct {
	Status       string   `json:"status" yaml:"status"`
	DeletedFiles []string `json:"deleted_files" yaml:"deleted_files"`
}

// Ack is the generic acknowledgement body of mutating endpoints
type Ack struct {
	Status   string `json:"status,omitempty" yaml:"status,omitempty"`
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
}

// Item is one entry of a business's product catalog
type Item struct {
	Index       int    `json:"index" yaml:"index"`
	ProductName string `json:"product_name" yaml:"product_name"`
}

// TrainRequest is the body of a training job submission
type TrainRequest struct {
	NSamples   int  `json:"n_samples"`
	UseTabular bool `json:"use_tabular"`
	UseText    bool `json:"use_text"`
	NNeighbors int  `json:"n_neighbors,omitempty"`
}

// Training defaults
const (
	DefaultNSamples   = 50
	DefaultNNeighbors = 6
	DefaultK          = 5
)

// TrainResponse acknowledges a training job. All fields are optional.
type TrainResponse struct {
	Status      string      `json:"status,omitempty" yaml:"status,omitempty"`
	ItemsLoaded int         `json:"items_loaded,omitempty" yaml:"items_loaded,omitempty"`
	Modalities  *Modalities `json:"modalities,omitempty" yaml:"modalities,omitempty"`
}

// Modalities lists the feature sources a model was trained on
type Modalities struct {
	Tabular bool `json:"tabular" yaml:"tabular"`
	Text    bool `json:"text" yaml:"text"`
}

// Recommendation is one ranked item
type Recommendation struct {
	Index       int    `json:"index" yaml:"index"`
	ProductName string `json:"product_name" yaml:"product_name"`
}

// RecommendationResult is the answer to a top-k query for a seed item
type RecommendationResult struct {
	QueryIndex      *int             `json:"query_index,omitempty" yaml:"query_index,omitempty"`
	ProductName     string           `json:"product_name" yaml:"product_name"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
}

// MetricsResult holds ranking-quality measures at k. Each measure may be absent.
type MetricsResult struct {
	K            int      `json:"k" yaml:"k"`
	PrecisionAtK *float64 `json:"precision_at_k,omitempty" yaml:"precision_at_k,omitempty"`
	RecallAtK    *float64 `json:"recall_at_k,omitempty" yaml:"recall_at_k,omitempty"`
	MAPAtK       *float64 `json:"map_at_k,omitempty" yaml:"map_at_k,omitempty"`
	MRRAtK       *float64 `json:"mrr_at_k,omitempty" yaml:"mrr_at_k,omitempty"`
	DiversityAtK *float64 `json:"diversity_at_k,omitempty" yaml:"diversity_at_k,omitempty"`
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
