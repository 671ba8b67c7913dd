package units

import (
	"strings"

	"github.com/sentosa-erp/sentosa/internal/shared"
)

func (s *Service) validate(u Unit) error {
	if strings.TrimSpace(u.Name) == "" {
		return shared.Invalidf("unit name is required")
	}
	if u.Multiplier <= 0 {
		return shared.Invalidf("unit multiplier must be greater than zero")
	}
	return nil
}
