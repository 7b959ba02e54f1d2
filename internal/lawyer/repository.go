// File: internal/lawyer/repository.go
package lawyer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kanoonwise_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for lawyer profile data operations.
type Repository interface {
	Create(ctx context.Context, profile *Profile) error
	Update(ctx context.Context, profile *Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Profile, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	FindBySlug(ctx context.Context, slugValue string) (*Profile, error)
	Search(ctx context.Context, query SearchQuery) ([]Profile, *common.Pagination, error)
	SlugExists(ctx context.Context, slugValue string, excludeID uuid.UUID) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM lawyer profile repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, profile *Profile) error {
	err := r.db.WithContext(ctx).Create(profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "unique constraint") {
			return common.ErrConflict.WithDetails("A profile already exists for this lawyer.")
		}
		return fmt.Errorf("failed to create lawyer profile: %w", err)
	}
	return nil
}

func (r *gormRepository) Update(ctx context.Context, profile *Profile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("failed to update lawyer profile: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var profile Profile
	err := r.db.WithContext(ctx).Preload("User").First(&profile, "lawyer_profiles.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Lawyer profile not found.")
		}
		return nil, err
	}
	return &profile, nil
}

// FindByIDs loads profiles for the given IDs, preserving the input order.
func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []Profile
	if err := r.db.WithContext(ctx).Where("id IN (?)", ids).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to load lawyer profiles by IDs: %w", err)
	}
	byID := make(map[uuid.UUID]Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	ordered := make([]Profile, 0, len(profiles))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *gormRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var profile Profile
	err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Lawyer profile not found.")
		}
		return nil, err
	}
	return &profile, nil
}

func (r *gormRepository) FindBySlug(ctx context.Context, slugValue string) (*Profile, error) {
	var profile Profile
	err := r.db.WithContext(ctx).Preload("User").First(&profile, "slug = ?", slugValue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Lawyer profile not found.")
		}
		return nil, err
	}
	return &profile, nil
}

// Search filters the public directory. List membership checks use the
// Postgres ANY operator against the text[] columns.
func (r *gormRepository) Search(ctx context.Context, queryParams SearchQuery) ([]Profile, *common.Pagination, error) {
	var profiles []Profile
	var totalItems int64

	dbQuery := r.db.WithContext(ctx).Model(&Profile{})

	if queryParams.SearchTerm != "" {
		term := "%" + strings.ToLower(queryParams.SearchTerm) + "%"
		dbQuery = dbQuery.Where("LOWER(full_name) LIKE ? OR LOWER(city) LIKE ?", term, term)
	}
	if queryParams.City != "" {
		dbQuery = dbQuery.Where("LOWER(city) = ?", strings.ToLower(queryParams.City))
	}
	if queryParams.Specialization != "" {
		dbQuery = dbQuery.Where("? = ANY(specialization)", queryParams.Specialization)
	}
	if queryParams.Language != "" {
		dbQuery = dbQuery.Where("? = ANY(languages)", queryParams.Language)
	}
	if queryParams.ConsultationType != "" {
		dbQuery = dbQuery.Where("consultation_type IN (?)", []string{queryParams.ConsultationType, string(ConsultationBoth)})
	}

	if err := dbQuery.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count lawyer profiles: %w", err)
	}

	pagination := common.NewPagination(totalItems, queryParams.Page, queryParams.PageSize)
	err := dbQuery.
		Order("years_experience DESC, created_at DESC").
		Offset(queryParams.Offset()).
		Limit(queryParams.Limit()).
		Find(&profiles).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search lawyer profiles: %w", err)
	}
	return profiles, pagination, nil
}

// SlugExists reports whether another profile already uses the given slug.
func (r *gormRepository) SlugExists(ctx context.Context, slugValue string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&Profile{}).Where("slug = ?", slugValue)
	if excludeID != uuid.Nil {
		query = query.Where("id != ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
