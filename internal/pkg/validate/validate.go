package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. Field names in messages come
// from the json tag so they match what clients send.
var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return val
}

// Error reports every field that failed validation.
type Error struct {
	msgs []string
	tags []string
}

func (e *Error) Error() string { return strings.Join(e.msgs, "; ") }

// IsRequired reports whether err is an *Error with at least one missing field.
func IsRequired(err error) bool {
	var ve *Error
	if !errors.As(err, &ve) {
		return false
	}
	for _, tag := range ve.tags {
		if tag == "required" {
			return true
		}
	}
	return false
}

// Struct validates the given struct using its validate tags.
// Returns an *Error or nil.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &Error{}
	for _, fe := range ve {
		out.msgs = append(out.msgs, message(fe))
		out.tags = append(out.tags, fe.Tag())
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "len":
		return fmt.Sprintf("%s must be %s characters long", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", fe.Field())
	default:
		return fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag())
	}
}
