package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context) ([]*User, error)
}

type Service struct {
	repo     Repository
	hashCost int
}

type Option func(*Service)

// WithHashCost overrides the bcrypt cost, mainly to keep tests fast.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	Name     string
	Username string
	Password string
	Role     Role
}

type UpdateParams struct {
	Name   string
	Role   Role
	Active bool
	// Password is changed only when non-empty.
	Password string
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Username = strings.ToLower(strings.TrimSpace(params.Username))

	switch {
	case params.Name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	case params.Username == "":
		return nil, fmt.Errorf("%w: username is required", ErrInvalid)
	case !params.Role.Valid():
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalid, params.Role)
	}

	hash, err := s.hash(params.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         params.Name,
		Username:     params.Username,
		PasswordHash: hash,
		Role:         params.Role,
		Active:       true,
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*User, error) {
	params.Name = strings.TrimSpace(params.Name)

	if params.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}

	if !params.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalid, params.Role)
	}

	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Name = params.Name
	u.Role = params.Role
	u.Active = params.Active

	if params.Password != "" {
		if u.PasswordHash, err = s.hash(params.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Login returns ErrInvalidCredentials for unknown users, wrong passwords and
// deactivated accounts alike.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !u.Active {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// EnsureAdmin creates an Admin account when no users exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (created bool, err error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return false, err
	}

	if len(users) > 0 {
		return false, nil
	}

	if _, err := s.Create(ctx, CreateParams{
		Name:     "Administrator",
		Username: username,
		Password: password,
		Role:     RoleAdmin,
	}); err != nil {
		return false, err
	}

	return true, nil
}

func (s *Service) hash(password string) (string, error) {
	if len(password) < 6 {
		return "", fmt.Errorf("%w: password must be at least 6 characters", ErrInvalid)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	return string(hash), nil
}
