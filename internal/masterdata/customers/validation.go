package customers

import (
	"strings"

	"github.com/sentosa-erp/sentosa/internal/shared"
)

func (s *Service) validate(c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return shared.Invalidf("customer name is required")
	}
	return nil
}
