package settings

import (
	"context"
	"errors"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=settings
type Repository interface {
	GetSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, s *Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetSettings returns a snapshot; callers may keep it for the duration of one operation.
func (s *Service) GetSettings(ctx context.Context) (Settings, error) {
	stored, err := s.repo.GetSettings(ctx)
	if errors.Is(err, ErrNotFound) {
		return Defaults(), nil
	}

	if err != nil {
		return Settings{}, err
	}

	return *stored, nil
}

func (s *Service) Update(ctx context.Context, next Settings) (Settings, error) {
	if err := next.validate(); err != nil {
		return Settings{}, err
	}

	if err := s.repo.SaveSettings(ctx, &next); err != nil {
		return Settings{}, err
	}

	return next, nil
}
