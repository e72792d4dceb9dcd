package complaint

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"strings"

	"sulabh/backend/internal/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate checks s against its tags and reports the first failure as a ValidationError.
func (s *Store) validate(v any) error {
	err := s.validator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperrors.NewValidationError(describe(verrs[0]), err)
	}
	return apperrors.NewValidationError("Invalid complaint data", err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s is too long", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// sanitizer strips all markup from citizen-supplied text.
type sanitizer struct {
	policy *bluemonday.Policy
}

func newSanitizer() *sanitizer {
	return &sanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *sanitizer) text(in string) string {
	// the policy entity-encodes what it keeps; stored text is plain
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}

func (s *sanitizer) list(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if clean := s.text(v); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
