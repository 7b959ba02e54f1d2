// File: internal/seed/seed.go
package seed

import (
	"context"
	"errors"

	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/lawyer"
	"kanoonwise_backend/internal/user"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Fixture pairs a user row with its lawyer profile. Fixtures are keyed by
// email so seeding stays idempotent and tear-down stays exact.
type Fixture struct {
	Email   string
	Profile lawyer.Profile
}

// Fixtures returns the built-in demo lawyers.
func Fixtures() []Fixture {
	return []Fixture{
		{
			Email: "advocate.sharma@kanoonwise.test",
			Profile: lawyer.Profile{
				FullName:              "Adv. Priya Sharma",
				BarRegistrationNumber: "DL/1234/2010",
				Specialization:        pq.StringArray{"civil", "property"},
				CourtPractice:         pq.StringArray{"Delhi High Court", "Saket District Court"},
				Languages:             pq.StringArray{"hindi", "english"},
				FeeStructure:          lawyer.FeeStructure{Consultation: 1500, Court: 8000},
				YearsExperience:       14,
				City:                  "Delhi",
				ConsultationType:      lawyer.ConsultationBoth,
			},
		},
		{
			Email: "advocate.iyer@kanoonwise.test",
			Profile: lawyer.Profile{
				FullName:              "Adv. Ramesh Iyer",
				BarRegistrationNumber: "MH/5678/2015",
				Specialization:        pq.StringArray{"criminal"},
				CourtPractice:         pq.StringArray{"Bombay High Court"},
				Languages:             pq.StringArray{"marathi", "hindi", "english"},
				FeeStructure:          lawyer.FeeStructure{Consultation: 2000, Court: 12000},
				YearsExperience:       9,
				City:                  "Mumbai",
				ConsultationType:      lawyer.ConsultationOffline,
			},
		},
		{
			Email: "advocate.rao@kanoonwise.test",
			Profile: lawyer.Profile{
				FullName:              "Adv. Lakshmi Rao",
				BarRegistrationNumber: "KA/9012/2018",
				Specialization:        pq.StringArray{"family", "corporate"},
				CourtPractice:         pq.StringArray{"Karnataka High Court"},
				Languages:             pq.StringArray{"kannada", "english"},
				FeeStructure:          lawyer.FeeStructure{Consultation: 1200, Court: 6000},
				YearsExperience:       6,
				City:                  "Bengaluru",
				ConsultationType:      lawyer.ConsultationOnline,
			},
		},
	}
}

// Up inserts the fixture lawyers, skipping any whose email already exists.
func Up(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	fixtures := Fixtures()
	created := 0

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, f := range fixtures {
			var existing user.User
			err := tx.Where("email = ?", f.Email).First(&existing).Error
			if err == nil {
				logger.Info("Seed fixture already present, skipping", zap.String("email", f.Email))
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			u := user.User{
				BaseModel: common.BaseModel{ID: uuid.New()},
				Email:     f.Email,
				Role:      common.RoleLawyer,
			}
			if err := tx.Create(&u).Error; err != nil {
				return err
			}

			profile := f.Profile
			profile.ID = uuid.New()
			profile.UserID = u.ID
			profile.Slug = slug.Make(profile.FullName)
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Seed completed", zap.Int("lawyers_created", created), zap.Int("fixtures_total", len(fixtures)))
	return nil
}

// Down removes exactly the fixture rows, matched by email. Profiles go first,
// then the users.
func Down(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	emails := make([]string, 0, len(Fixtures()))
	for _, f := range Fixtures() {
		emails = append(emails, f.Email)
	}

	removed := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []user.User
		if err := tx.Where("email IN (?)", emails).Find(&users).Error; err != nil {
			return err
		}
		for _, u := range users {
			if err := tx.Where("user_id = ?", u.ID).Delete(&lawyer.Profile{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&user.User{}, "id = ?", u.ID).Error; err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Seed removed", zap.Int("lawyers_removed", removed))
	return nil
}
