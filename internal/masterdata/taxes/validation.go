package taxes

import (
	"strings"

	"github.com/sentosa-erp/sentosa/internal/shared"
)

func (s *Service) validate(t Tax) error {
	if strings.TrimSpace(t.Name) == "" {
		return shared.Invalidf("tax name is required")
	}
	if t.Percentage < 0 || t.Percentage > 100 {
		return shared.Invalidf("tax percentage must be between 0 and 100")
	}
	return nil
}
