package repository

import (
	"context"
	"errors"

	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository 사용자 환경설정 저장소
type ProfileRepository interface {
	// Get returns a zero-value profile for unknown users
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Save(ctx context.Context, profile *domain.UserProfile) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := readWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.UserProfile{UserID: userID}, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.UserProfile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "auto_enable_chat", "chat_disabled", "updated_at"}),
	}).Create(profile).Error
}
