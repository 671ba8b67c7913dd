package users

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	mdshared "github.com/sentosa-erp/sentosa/internal/masterdata/shared"
	"github.com/sentosa-erp/sentosa/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Input carries user attributes plus an optional plaintext password. On
// update an empty password leaves the stored hash untouched.
type Input struct {
	Name     string
	Email    string
	Password string
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]User, int64, error) {
	return s.repo.List(ctx, filters.Normalize())
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, shared.Invalidf("invalid user ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input Input) (User, error) {
	if err := s.validate(input); err != nil {
		return User{}, err
	}
	if input.Password == "" {
		return User{}, shared.Invalidf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, User{Name: input.Name, Email: input.Email, PasswordHash: string(hash)})
}

func (s *Service) Update(ctx context.Context, id int64, input Input) (User, error) {
	if id <= 0 {
		return User{}, shared.Invalidf("invalid user ID")
	}
	if err := s.validate(input); err != nil {
		return User{}, err
	}
	user := User{Name: input.Name, Email: input.Email}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, id, user); err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.Invalidf("invalid user ID")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(input Input) error {
	if strings.TrimSpace(input.Name) == "" {
		return shared.Invalidf("user name is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return shared.Invalidf("user email is required")
	}
	if input.Password != "" && len(input.Password) < 8 {
		return shared.Invalidf("password must be at least 8 characters")
	}
	return nil
}
