package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"mailtasks-cli/internal/model"
)

// ErrInvalidInput marks input rejected before any request is made.
var ErrInvalidInput = errors.New("invalid input")

// FieldError names the first offending field of a rejected request.
type FieldError struct {
	Field string
	Rule  string
}

func (e *FieldError) Error() string {
	switch e.Rule {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", e.Field, strings.Join(urgencyNames(), ", "))
	default:
		return fmt.Sprintf("%s is invalid", e.Field)
	}
}

func (e *FieldError) Unwrap() error { return ErrInvalidInput }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func v() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return jsonName(f.Tag.Get("json"), f.Name)
		})
	})
	return validate
}

// ValidateCreate checks every field is present, the urgency is one of the
// known tiers and the recipient is a syntactically valid address.
func ValidateCreate(req model.CreateTaskRequest) error {
	return firstFieldError(v().Struct(req))
}

// ValidateContact checks name and email.
func ValidateContact(req model.ContactRequest) error {
	return firstFieldError(v().Struct(req))
}

func firstFieldError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &FieldError{Field: verrs[0].Field(), Rule: verrs[0].Tag()}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func jsonName(tag, fallback string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return fallback
	}
	return name
}

func urgencyNames() []string {
	out := make([]string, 0, len(model.Urgencies))
	for _, u := range model.Urgencies {
		out = append(out, string(u))
	}
	return out
}
