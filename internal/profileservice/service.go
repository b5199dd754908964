// Package profileservice manages the per-installation singleton profile.
package profileservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/aoyagi/manabi/internal/models"
	"github.com/aoyagi/manabi/internal/store"
)

// Service loads and updates the singleton UserProfile.
type Service struct {
	mu      sync.Mutex
	store   store.Provider
	profile *models.UserProfile
}

// NewService creates a profile service.
func NewService(st store.Provider) *Service {
	return &Service{store: st}
}

// Load returns the profile, creating and persisting a default one on
// first access.
func (s *Service) Load(_ context.Context) (models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile != nil {
		return *s.profile, nil
	}

	p, err := s.store.LoadProfile()
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("profileservice: load: %w", err)
	}
	if p == nil {
		fresh := models.NewUserProfile(models.DefaultProfileName)
		if err := s.store.SaveProfile(fresh); err != nil {
			return models.UserProfile{}, fmt.Errorf("profileservice: create default: %w", err)
		}
		p = &fresh
	}
	s.profile = p
	return *p, nil
}

// UpdateName sets the display name and persists the profile.
func (s *Service) UpdateName(ctx context.Context, name string) (models.UserProfile, error) {
	return s.update(ctx, func(p *models.UserProfile) {
		p.Name = name
	})
}

// UpdateSettings replaces the embedded settings and persists the profile.
func (s *Service) UpdateSettings(ctx context.Context, settings models.UserSettings) (models.UserProfile, error) {
	return s.update(ctx, func(p *models.UserProfile) {
		p.Settings = settings
	})
}

// SetAvatarURL records the avatar reference and persists the profile.
func (s *Service) SetAvatarURL(ctx context.Context, url string) (models.UserProfile, error) {
	return s.update(ctx, func(p *models.UserProfile) {
		p.AvatarURL = url
	})
}

// SetEmail records the account email and persists the profile.
func (s *Service) SetEmail(ctx context.Context, email string) (models.UserProfile, error) {
	return s.update(ctx, func(p *models.UserProfile) {
		p.Email = email
	})
}

func (s *Service) update(ctx context.Context, fn func(*models.UserProfile)) (models.UserProfile, error) {
	// Ensure the singleton exists before mutating it.
	if _, err := s.Load(ctx); err != nil {
		return models.UserProfile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := *s.profile
	fn(&updated)
	if err := s.store.SaveProfile(updated); err != nil {
		return models.UserProfile{}, fmt.Errorf("profileservice: save: %w", err)
	}
	s.profile = &updated
	return updated, nil
}
