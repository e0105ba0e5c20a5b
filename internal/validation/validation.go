package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	validator "github.com/go-playground/validator/v10"
)

// Limits enforced by Confluence Server/Data Center.
const (
	MaxSpaceKeyLength  = 255
	MaxSpaceNameLength = 200
	MaxTitleLength     = 255
)

var (
	// spaceKeyRegex matches Confluence space keys (letters and digits only)
	spaceKeyRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

	// personalSpaceKeyRegex matches personal space keys, a tilde followed by the owner's username
	personalSpaceKeyRegex = regexp.MustCompile(`^~[a-zA-Z0-9._@-]+$`)

	// contentIDRegex matches numeric content IDs
	contentIDRegex = regexp.MustCompile(`^[0-9]+$`)

	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes one failed struct constraint.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (fe FieldError) Error() string {
	switch fe.Tag {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field)
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", fe.Field, fe.Param)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field, fe.Param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field, fe.Param)
	case "spacekey":
		return fmt.Sprintf("%s must contain only letters and digits", fe.Field)
	case "numeric":
		return fmt.Sprintf("%s must be numeric", fe.Field)
	case "eq":
		return fmt.Sprintf("%s must be %s", fe.Field, fe.Param)
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field, fe.Tag)
	}
}

// Errors is the list of constraint failures returned by Struct.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// IsTooLong reports whether any failure is a maximum length violation.
func IsTooLong(err error) bool {
	var errs Errors
	if !errors.As(err, &errs) {
		return false
	}
	for _, fe := range errs {
		if fe.Tag == "max" {
			return true
		}
	}
	return false
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("spacekey", func(fl validator.FieldLevel) bool {
			return spaceKeyRegex.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates the `validate` tags on s.
func Struct(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// ValidateSpaceKey validates a Confluence space key.
func ValidateSpaceKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("space key is required")
	}
	if utf8.RuneCountInString(key) > MaxSpaceKeyLength {
		return fmt.Errorf("space key cannot exceed %d characters", MaxSpaceKeyLength)
	}
	if !spaceKeyRegex.MatchString(key) {
		return fmt.Errorf("space key %q must contain only letters and digits", key)
	}
	return nil
}

// ValidateSpaceKeyReference validates a key that names an existing space. Personal space keys
// (~username) are accepted as well as global ones.
func ValidateSpaceKeyReference(key string) error {
	if strings.HasPrefix(key, "~") {
		if utf8.RuneCountInString(key) > MaxSpaceKeyLength {
			return fmt.Errorf("space key cannot exceed %d characters", MaxSpaceKeyLength)
		}
		if !personalSpaceKeyRegex.MatchString(key) {
			return fmt.Errorf("personal space key %q must be ~ followed by a username", key)
		}
		return nil
	}
	return ValidateSpaceKey(key)
}

// ValidateContentID validates a numeric content ID.
func ValidateContentID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("content ID is required")
	}
	if !contentIDRegex.MatchString(id) {
		return fmt.Errorf("content ID %q must be numeric", id)
	}
	return nil
}

// ValidateRequired validates that a field is non-empty.
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateMaxLength validates string length constraints. Length is counted in characters, as
// Confluence and the struct `max` tag count it.
func ValidateMaxLength(value, fieldName string, maxLen int) error {
	if utf8.RuneCountInString(value) > maxLen {
		return fmt.Errorf("%s cannot exceed %d characters", fieldName, maxLen)
	}
	return nil
}

// ValidateEnum validates that a value is one of the allowed values.
func ValidateEnum(value, fieldName string, allowedValues []string) error {
	for _, allowed := range allowedValues {
		if value == allowed {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %s", fieldName, strings.Join(allowedValues, ", "))
}

// ValidateRange validates that an integer is within [min, max].
func ValidateRange(value int, fieldName string, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d", fieldName, min, max)
	}
	return nil
}
