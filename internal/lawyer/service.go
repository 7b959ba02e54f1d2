// File: internal/lawyer/service.go
package lawyer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/internal/filestorage"
	"kanoonwise_backend/internal/platform/elasticsearch"
	"kanoonwise_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Uploads carries the optional attachments of a profile update.
type Uploads struct {
	Photo          *multipart.FileHeader
	CV             *multipart.FileHeader
	BarCertificate *multipart.FileHeader
}

// Service defines the interface for lawyer profile business logic.
type Service interface {
	GetMyProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateMyProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest, uploads Uploads) (*Profile, error)
	GetFiles(ctx context.Context, userID uuid.UUID) (FilesResponse, error)
	GetFileURL(ctx context.Context, userID uuid.UUID, key string) (string, error)
	SearchLawyers(ctx context.Context, query SearchQuery) ([]Profile, *common.Pagination, error)
	GetPublicProfile(ctx context.Context, idOrSlug string) (*Profile, error)
	FileURL(key string) string
}

// ServiceImplementation implements the lawyer Service interface.
type ServiceImplementation struct {
	repo        Repository
	userService shared.Service
	files       *filestorage.Service
	esClient    *elasticsearch.ESClientWrapper
	cfg         *config.Config
	logger      *zap.Logger
}

// NewService creates a new lawyer service. esClient may be nil, in which case
// directory searches go to the database.
func NewService(
	repo Repository,
	userService shared.Service,
	files *filestorage.Service,
	esClient *elasticsearch.ESClientWrapper,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repo:        repo,
		userService: userService,
		files:       files,
		esClient:    esClient,
		cfg:         cfg,
		logger:      logger,
	}
}

// GetMyProfile returns the caller's own profile.
func (s *ServiceImplementation) GetMyProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.repo.FindByUserID(ctx, userID)
}

// UpdateMyProfile applies a validated field patch and any uploaded attachments
// to the caller's profile, creating the profile on first update. A storage
// failure on any attachment aborts the whole update before persistence.
func (s *ServiceImplementation) UpdateMyProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest, uploads Uploads) (*Profile, error) {
	owner, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if owner.Role != common.RoleLawyer {
		return nil, common.ErrForbidden.WithDetails("Only lawyer accounts can maintain a lawyer profile.")
	}

	profile, err := s.repo.FindByUserID(ctx, userID)
	isNew := false
	if err != nil {
		apiErr, ok := common.IsAPIError(err)
		if !ok || apiErr.Code != common.ErrNotFound.Code {
			return nil, err
		}
		profile = &Profile{UserID: userID, ConsultationType: ConsultationBoth}
		isNew = true
	}

	fee, err := resolveFeeStructure(req, profile.FeeStructure)
	if err != nil {
		return nil, err
	}

	nameChanged := profile.FullName != req.FullName
	profile.FullName = req.FullName
	profile.BarRegistrationNumber = req.BarRegistrationNumber
	profile.Specialization = normalizeList(req.Specialization)
	profile.CourtPractice = normalizeList(req.CourtPractice)
	profile.Languages = normalizeList(req.Languages)
	profile.FeeStructure = fee
	if req.YearsExperience != nil {
		profile.YearsExperience = *req.YearsExperience
	}
	if req.City != nil {
		profile.City = *req.City
	}
	if req.ConsultationType != "" {
		profile.ConsultationType = req.ConsultationType
	}

	if isNew || nameChanged || profile.Slug == "" {
		uniqueSlug, err := s.generateUniqueSlug(ctx, profile.FullName, profile.ID)
		if err != nil {
			return nil, err
		}
		profile.Slug = uniqueSlug
	}

	if err := s.applyUploads(profile, uploads); err != nil {
		return nil, err
	}

	if isNew {
		err = s.repo.Create(ctx, profile)
	} else {
		err = s.repo.Update(ctx, profile)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lawyer profile updated",
		zap.String("userID", userID.String()),
		zap.String("profileID", profile.ID.String()),
		zap.Bool("created", isNew),
	)
	return profile, nil
}

// applyUploads stores the attachments, replacing prior files per field. The
// first storage failure aborts with an upload error; nothing is persisted.
func (s *ServiceImplementation) applyUploads(profile *Profile, uploads Uploads) error {
	type pending struct {
		header *multipart.FileHeader
		kind   filestorage.Kind
		target **string
	}
	items := []pending{
		{uploads.Photo, filestorage.KindPhoto, &profile.PhotoKey},
		{uploads.CV, filestorage.KindCV, &profile.CVKey},
		{uploads.BarCertificate, filestorage.KindBarCertificate, &profile.BarCertificateKey},
	}
	for _, item := range items {
		if item.header == nil {
			continue
		}
		oldKey := ""
		if *item.target != nil {
			oldKey = **item.target
		}
		newKey, err := s.files.Replace(item.header, item.kind, oldKey)
		if err != nil {
			s.logger.Error("Attachment storage failed",
				zap.String("kind", string(item.kind)),
				zap.Error(err),
			)
			if _, ok := common.IsAPIError(err); ok {
				return err
			}
			return common.ErrUpload.WithDetails(fmt.Sprintf("Failed to store %s attachment.", item.kind))
		}
		*item.target = &newKey
	}
	return nil
}

func resolveFeeStructure(req UpdateProfileRequest, current FeeStructure) (FeeStructure, error) {
	fee := current
	switch {
	case req.FeeStructure != nil:
		fee = *req.FeeStructure
	case req.FeeStructureRaw != "":
		if err := json.Unmarshal([]byte(req.FeeStructureRaw), &fee); err != nil {
			return FeeStructure{}, common.NewValidationAPIError(map[string]string{
				"fee_structure": "must be a JSON object like {\"consultation\": 500, \"court\": 2000}",
			})
		}
	}
	if fee.Consultation < 0 || fee.Court < 0 {
		return FeeStructure{}, common.NewValidationAPIError(map[string]string{
			"fee_structure": "fee values must be non-negative",
		})
	}
	return fee, nil
}

func normalizeList(field ListField) []string {
	if len(field) == 0 {
		return nil
	}
	out := make([]string, 0, len(field))
	for _, item := range field {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (s *ServiceImplementation) generateUniqueSlug(ctx context.Context, fullName string, excludeID uuid.UUID) (string, error) {
	base := slug.Make(fullName)
	if base == "" {
		base = "lawyer"
	}
	candidate := base
	for i := 2; ; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
		if i > 50 {
			return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
		}
	}
}

// GetFiles returns the caller's stored attachments keyed by field name.
func (s *ServiceImplementation) GetFiles(ctx context.Context, userID uuid.UUID) (FilesResponse, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := FilesResponse{}
	add := func(field string, key *string) {
		if key != nil && *key != "" {
			resp[field] = FileRef{Key: *key, URL: s.files.URL(*key)}
		}
	}
	add("photo", profile.PhotoKey)
	add("cv", profile.CVKey)
	add("bar_certificate", profile.BarCertificateKey)
	return resp, nil
}

// GetFileURL resolves a storage key to its public URL, but only when the key
// belongs to the caller's own profile.
func (s *ServiceImplementation) GetFileURL(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	owned := false
	for _, k := range []*string{profile.PhotoKey, profile.CVKey, profile.BarCertificateKey} {
		if k != nil && *k == key {
			owned = true
			break
		}
	}
	if !owned {
		return "", common.ErrNotFound.WithDetails("No such file on your profile.")
	}
	return s.files.URL(key), nil
}

// FileURL resolves a storage key to its public URL without ownership checks.
// Used when building responses from profiles already loaded.
func (s *ServiceImplementation) FileURL(key string) string {
	return s.files.URL(key)
}

// SearchLawyers queries the public directory, via Elasticsearch when a client
// is configured and falling back to the database otherwise.
func (s *ServiceImplementation) SearchLawyers(ctx context.Context, query SearchQuery) ([]Profile, *common.Pagination, error) {
	if s.esClient != nil {
		profiles, pagination, err := s.searchWithES(ctx, query)
		if err == nil {
			return profiles, pagination, nil
		}
		s.logger.Warn("Elasticsearch search failed, falling back to database", zap.Error(err))
	}
	return s.repo.Search(ctx, query)
}

func (s *ServiceImplementation) searchWithES(ctx context.Context, query SearchQuery) ([]Profile, *common.Pagination, error) {
	var must []map[string]interface{}
	var filter []map[string]interface{}

	if query.SearchTerm != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query.SearchTerm,
				"fields": []string{"full_name", "city"},
			},
		})
	}
	if query.City != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"city": strings.ToLower(query.City)},
		})
	}
	if query.Specialization != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"specialization": query.Specialization},
		})
	}
	if query.Language != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"languages": query.Language},
		})
	}
	if query.ConsultationType != "" {
		filter = append(filter, map[string]interface{}{
			"terms": map[string]interface{}{
				"consultation_type": []string{query.ConsultationType, string(ConsultationBoth)},
			},
		})
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	if len(boolQuery) == 0 {
		boolQuery["must"] = []map[string]interface{}{{"match_all": map[string]interface{}{}}}
	}

	page, pageSize := query.Page, query.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = common.DefaultPageSize
	}
	body := map[string]interface{}{
		"query":   map[string]interface{}{"bool": boolQuery},
		"from":    (page - 1) * pageSize,
		"size":    pageSize,
		"sort":    []map[string]interface{}{{"years_experience": map[string]string{"order": "desc"}}},
		"_source": false,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build ES query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(elasticsearch.LawyersIndexName),
		s.esClient.Search.WithBody(strings.NewReader(string(bodyBytes))),
		s.esClient.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("ES search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, nil, fmt.Errorf("ES search returned status %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("failed to decode ES response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	profiles, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return profiles, common.NewPagination(parsed.Hits.Total.Value, page, pageSize), nil
}

// GetPublicProfile looks up a lawyer by UUID or by slug for the public
// directory detail endpoint.
func (s *ServiceImplementation) GetPublicProfile(ctx context.Context, idOrSlug string) (*Profile, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return s.repo.FindByID(ctx, id)
	}
	profile, err := s.repo.FindBySlug(ctx, idOrSlug)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == common.ErrNotFound.Code {
			return nil, common.ErrNotFound.WithDetails("Lawyer not found.")
		}
		return nil, err
	}
	return profile, nil
}
