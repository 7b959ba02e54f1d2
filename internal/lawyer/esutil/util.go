package esutil

import (
	"encoding/json"
	"errors"
	"fmt"

	"kanoonwise_backend/internal/lawyer"
)

// ProfileToElasticsearchDoc converts a lawyer.Profile to its Elasticsearch
// document representation. The document shape must stay in sync with the
// lawyers index mapping.
func ProfileToElasticsearchDoc(p *lawyer.Profile) (string, error) {
	if p == nil {
		return "", errors.New("profile cannot be nil")
	}

	doc := map[string]interface{}{
		"full_name":         p.FullName,
		"slug":              p.Slug,
		"user_id":           p.UserID.String(),
		"city":              p.City,
		"specialization":    []string(p.Specialization),
		"court_practice":    []string(p.CourtPractice),
		"languages":         []string(p.Languages),
		"consultation_type": string(p.ConsultationType),
		"years_experience":  p.YearsExperience,
		"created_at":        p.CreatedAt,
	}

	docBytes, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("error marshalling lawyer profile to JSON for ES: %w", err)
	}
	return string(docBytes), nil
}
