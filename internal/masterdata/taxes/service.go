package taxes

import (
	"context"

	mdshared "github.com/sentosa-erp/sentosa/internal/masterdata/shared"
	"github.com/sentosa-erp/sentosa/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Tax, int64, error) {
	return s.repo.List(ctx, filters.Normalize())
}

func (s *Service) Get(ctx context.Context, id int64) (Tax, error) {
	if id <= 0 {
		return Tax{}, shared.Invalidf("invalid tax ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, tax Tax) (Tax, error) {
	if err := s.validate(tax); err != nil {
		return Tax{}, err
	}
	return s.repo.Create(ctx, tax)
}

func (s *Service) Update(ctx context.Context, id int64, tax Tax) (Tax, error) {
	if id <= 0 {
		return Tax{}, shared.Invalidf("invalid tax ID")
	}
	if err := s.validate(tax); err != nil {
		return Tax{}, err
	}
	if err := s.repo.Update(ctx, id, tax); err != nil {
		return Tax{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.Invalidf("invalid tax ID")
	}
	return s.repo.Delete(ctx, id)
}
