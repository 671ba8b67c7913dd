package products

import (
	"strings"

	"github.com/sentosa-erp/sentosa/internal/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return shared.Invalidf("product name is required")
	}
	if p.Price < 0 {
		return shared.Invalidf("product price must not be negative")
	}
	if !p.Type.Valid() {
		return shared.Invalidf("unknown product type %q", p.Type)
	}
	return nil
}
