// File: internal/lawyer/model.go
package lawyer

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/user"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ConsultationType describes how a lawyer takes consultations.
type ConsultationType string

const (
	ConsultationOnline  ConsultationType = "online"
	ConsultationOffline ConsultationType = "offline"
	ConsultationBoth    ConsultationType = "both"
)

// FeeStructure holds a lawyer's fees in whole currency units. Stored as JSONB.
type FeeStructure struct {
	Consultation float64 `json:"consultation" binding:"omitempty,gte=0"`
	Court        float64 `json:"court" binding:"omitempty,gte=0"`
}

// Value implements the driver.Valuer interface for FeeStructure.
func (f FeeStructure) Value() (driver.Value, error) {
	if f.Consultation < 0 || f.Court < 0 {
		return nil, fmt.Errorf("fee structure values must be non-negative")
	}
	return json.Marshal(f)
}

// Scan implements the sql.Scanner interface for FeeStructure.
func (f *FeeStructure) Scan(value interface{}) error {
	if value == nil {
		*f = FeeStructure{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to scan FeeStructure: invalid type")
	}
	return json.Unmarshal(data, f)
}

// Profile is the lawyer's public and professional record, one per lawyer user.
type Profile struct {
	common.BaseModel
	UserID                uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	User                  *user.User       `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FullName              string           `gorm:"type:varchar(150);not null"`
	Slug                  string           `gorm:"type:varchar(170);uniqueIndex"`
	BarRegistrationNumber string           `gorm:"type:varchar(100);not null"`
	Specialization        pq.StringArray   `gorm:"type:text[]"`
	CourtPractice         pq.StringArray   `gorm:"type:text[]"`
	Languages             pq.StringArray   `gorm:"type:text[]"`
	FeeStructure          FeeStructure     `gorm:"type:jsonb"`
	YearsExperience       int              `gorm:"not null;default:0"`
	City                  string           `gorm:"type:varchar(100)"`
	ConsultationType      ConsultationType `gorm:"type:varchar(20);not null;default:'both'"`
	PhotoKey              *string          `gorm:"type:text"`
	CVKey                 *string          `gorm:"type:text;column:cv_key"`
	BarCertificateKey     *string          `gorm:"type:text"`
}

func (Profile) TableName() string {
	return "lawyer_profiles"
}

// --- DTOs for API ---

// UpdateProfileRequest is the single field set both the JSON and the multipart
// form of the profile update bind to. List fields keep their raw form here;
// normalization happens in the service.
type UpdateProfileRequest struct {
	FullName              string           `json:"full_name" form:"full_name" binding:"required,min=2,max=150"`
	BarRegistrationNumber string           `json:"bar_registration_number" form:"bar_registration_number" binding:"required,min=2,max=100"`
	Specialization        ListField        `json:"specialization" form:"specialization"`
	CourtPractice         ListField        `json:"court_practice" form:"court_practice"`
	Languages             ListField        `json:"languages" form:"languages"`
	FeeStructure          *FeeStructure    `json:"fee_structure" form:"-"`
	FeeStructureRaw       string           `json:"-" form:"fee_structure"`
	YearsExperience       *int             `json:"years_experience" form:"years_experience" binding:"omitempty,gte=0,lte=70"`
	City                  *string          `json:"city" form:"city" binding:"omitempty,max=100"`
	ConsultationType      ConsultationType `json:"consultation_type" form:"consultation_type" binding:"omitempty,oneof=online offline both"`
}

// ListField accepts either a JSON array of strings or a single JSON-encoded
// string containing such an array. Multipart forms send the latter.
type ListField []string

// UnmarshalJSON implements json.Unmarshaler for ListField.
func (l *ListField) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*l = items
		return nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return fmt.Errorf("list field must be an array of strings or an encoded array: %w", err)
	}
	return l.fromEncoded(encoded)
}

func (l *ListField) fromEncoded(s string) error {
	if s == "" {
		*l = nil
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err == nil {
		*l = items
		return nil
	}
	*l = []string{s}
	return nil
}

// decodeFormLists re-decodes the list fields from the raw multipart values.
// Gin's form binding copies slice fields verbatim, one element per form value,
// and never runs custom decoding for them, so a JSON-encoded array like
// `["hindi","english"]` would otherwise bind as a single literal element.
func (r *UpdateProfileRequest) decodeFormLists(values map[string][]string) error {
	targets := map[string]*ListField{
		"specialization": &r.Specialization,
		"court_practice": &r.CourtPractice,
		"languages":      &r.Languages,
	}
	for name, target := range targets {
		raw, ok := values[name]
		if !ok {
			continue
		}
		decoded := make(ListField, 0, len(raw))
		for _, value := range raw {
			var part ListField
			if err := part.fromEncoded(value); err != nil {
				return fmt.Errorf("invalid %s value: %w", name, err)
			}
			decoded = append(decoded, part...)
		}
		*target = decoded
	}
	return nil
}

// ProfileResponse is the API shape of a lawyer profile.
type ProfileResponse struct {
	ID                    uuid.UUID        `json:"id"`
	UserID                uuid.UUID        `json:"user_id"`
	FullName              string           `json:"full_name"`
	Slug                  string           `json:"slug"`
	BarRegistrationNumber string           `json:"bar_registration_number"`
	Specialization        []string         `json:"specialization"`
	CourtPractice         []string         `json:"court_practice"`
	Languages             []string         `json:"languages"`
	FeeStructure          FeeStructure     `json:"fee_structure"`
	YearsExperience       int              `json:"years_experience"`
	City                  string           `json:"city"`
	ConsultationType      ConsultationType `json:"consultation_type"`
	PhotoURL              *string          `json:"photo_url,omitempty"`
	CVURL                 *string          `json:"cv_url,omitempty"`
	BarCertificateURL     *string          `json:"bar_certificate_url,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// FileRef points at one stored attachment.
type FileRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// FilesResponse maps attachment field names to their stored file references.
type FilesResponse map[string]FileRef

// SearchQuery filters the public lawyer directory.
type SearchQuery struct {
	common.PaginationQuery
	SearchTerm       string `form:"q"`
	City             string `form:"city"`
	Specialization   string `form:"specialization"`
	Language         string `form:"language"`
	ConsultationType string `form:"consultation_type" binding:"omitempty,oneof=online offline both"`
}

// ToProfileResponse maps a profile to its API shape. urlFor resolves a storage
// key to a public URL; attachments without a key are omitted.
func ToProfileResponse(p *Profile, urlFor func(key string) string) ProfileResponse {
	resp := ProfileResponse{
		ID:                    p.ID,
		UserID:                p.UserID,
		FullName:              p.FullName,
		Slug:                  p.Slug,
		BarRegistrationNumber: p.BarRegistrationNumber,
		Specialization:        p.Specialization,
		CourtPractice:         p.CourtPractice,
		Languages:             p.Languages,
		FeeStructure:          p.FeeStructure,
		YearsExperience:       p.YearsExperience,
		City:                  p.City,
		ConsultationType:      p.ConsultationType,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	if p.PhotoKey != nil && *p.PhotoKey != "" {
		u := urlFor(*p.PhotoKey)
		resp.PhotoURL = &u
	}
	if p.CVKey != nil && *p.CVKey != "" {
		u := urlFor(*p.CVKey)
		resp.CVURL = &u
	}
	if p.BarCertificateKey != nil && *p.BarCertificateKey != "" {
		u := urlFor(*p.BarCertificateKey)
		resp.BarCertificateURL = &u
	}
	return resp
}
