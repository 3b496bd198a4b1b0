package client_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pratik-mahalle/bizrec/pkg/client"
)

// Example demonstrates basic usage of the recommendation service client
func Example() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8000",
		Timeout: 10 * time.Second,
	})

	ctx := context.Background()

	businesses, err := c.Businesses().List(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Found %d businesses\n", len(businesses))
}

// ExampleDatasetService_Upload demonstrates uploading a catalog and training on it
func ExampleDatasetService_Upload() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8000",
	})
	ctx := context.Background()

	f, err := os.Open("catalog.csv")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if _, err := c.Datasets().Upload(ctx, "1", "catalog.csv", f); err != nil {
		log.Fatal(err)
	}

	resp, err := c.Training().Train(ctx, "1", client.TrainRequest{
		NSamples:   client.DefaultNSamples,
		UseTabular: true,
		UseText:    true,
		NNeighbors: client.DefaultNNeighbors,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Trained on %d items\n", resp.ItemsLoaded)
}

// ExampleRecommendationService_Recommend demonstrates a top-k query
func ExampleRecommendationService_Recommend() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8000",
	})

	result, err := c.Recommendations().Recommend(context.Background(), "1", "3", client.DefaultK)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Items similar to %s:\n", result.ProductName)
	for _, r := range result.Recommendations {
		fmt.Printf("  [%d] %s\n", r.Index, r.ProductName)
	}
}

// ExampleMetricsService_Get demonstrates reading optional measures
func ExampleMetricsService_Get() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8000",
	})

	m, err := c.Metrics().Get(context.Background(), "1", client.DefaultK)
	if err != nil {
		log.Fatal(err)
	}

	if m.PrecisionAtK != nil {
		fmt.Printf("Precision@%d: %.3f\n", m.K, *m.PrecisionAtK)
	}
}
