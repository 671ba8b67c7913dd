package httpx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationMessage flattens a validator error into a single caller-facing
// message naming the first failing field.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("field %s is invalid (%s)", strings.ToLower(fe.Field()), fe.Tag())
	}
	return "invalid request"
}
