package service

import (
	"context"

	"github.com/bazaarhub/negotiation-backend/internal/domain"
	"github.com/bazaarhub/negotiation-backend/internal/repository"
)

// ProfileService 사용자 환경설정
type ProfileService interface {
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	UpdatePreferences(ctx context.Context, userID string, req *domain.UpdatePreferencesRequest) (*domain.UserProfile, error)
}

type profileService struct {
	repo repository.ProfileRepository
}

// NewProfileService 환경설정 서비스 생성
func NewProfileService(repo repository.ProfileRepository) ProfileService {
	return &profileService{repo: repo}
}

func (s *profileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return s.repo.Get(ctx, userID)
}

func (s *profileService) UpdatePreferences(ctx context.Context, userID string, req *domain.UpdatePreferencesRequest) (*domain.UserProfile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.AutoEnableChat != nil {
		p.AutoEnableChat = *req.AutoEnableChat
	}
	if req.ChatDisabled != nil {
		p.ChatDisabled = *req.ChatDisabled
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
