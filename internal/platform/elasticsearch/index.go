// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const LawyersIndexName = "lawyers"

// defineLawyersMapping returns the JSON mapping for the lawyers directory index.
func defineLawyersMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"full_name":         map[string]interface{}{"type": "text", "fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}}},
				"slug":              map[string]interface{}{"type": "keyword"},
				"user_id":           map[string]interface{}{"type": "keyword"},
				"city":              map[string]interface{}{"type": "keyword"},
				"specialization":    map[string]interface{}{"type": "keyword"},
				"court_practice":    map[string]interface{}{"type": "keyword"},
				"languages":         map[string]interface{}{"type": "keyword"},
				"consultation_type": map[string]interface{}{"type": "keyword"},
				"years_experience":  map[string]interface{}{"type": "integer"},
				"created_at":        map[string]interface{}{"type": "date"},
			},
		},
	}
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling lawyers mapping to JSON: %w", err)
	}
	return string(mappingBytes), nil
}

// CreateLawyersIndexIfNotExists creates the lawyers index with the defined
// mapping if it does not already exist.
func CreateLawyersIndexIfNotExists(client *ESClientWrapper, logger *zap.Logger) error {
	ctx := context.Background()
	log := logger.Named("elasticsearch_index_setup")

	existsReq := esapi.IndicesExistsRequest{
		Index: []string{LawyersIndexName},
	}
	res, err := existsReq.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error checking if lawyers index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Info("Lawyers index already exists", zap.String("index_name", LawyersIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status checking lawyers index: %s", res.Status())
	}

	mapping, err := defineLawyersMapping()
	if err != nil {
		return err
	}

	createReq := esapi.IndicesCreateRequest{
		Index: LawyersIndexName,
		Body:  strings.NewReader(mapping),
	}
	createRes, err := createReq.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error creating lawyers index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("error response creating lawyers index: %s", createRes.Status())
	}

	log.Info("Lawyers index created", zap.String("index_name", LawyersIndexName))
	return nil
}
