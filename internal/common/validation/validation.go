// Package validation collects field-level problems found in request payloads.
package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches parsed tags.
var validate = validator.New()

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is valid when it holds no field errors.
type Result struct {
	Errors []FieldError
}

func (r Result) Valid() bool { return len(r.Errors) == 0 }

func (r *Result) Add(field, format string, args ...any) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// check records message for field when value fails the validator tag.
func (r *Result) check(field string, value any, tag, format string, args ...any) bool {
	if err := validate.Var(value, tag); err != nil {
		r.Add(field, format, args...)
		return false
	}
	return true
}

func (r *Result) Required(field, value string) {
	r.check(field, strings.TrimSpace(value), "required", "%s should not be empty", field)
}

func (r *Result) Email(field, value string) {
	if !r.check(field, value, "required", "%s should not be empty", field) {
		return
	}
	r.check(field, value, "email", "%s must be an email", field)
}

// MinLength counts characters, not bytes.
func (r *Result) MinLength(field, value string, n int) {
	r.check(field, value, "min="+strconv.Itoa(n), "%s must be longer than or equal to %d characters", field, n)
}

// MaxLength counts characters, not bytes.
func (r *Result) MaxLength(field, value string, n int) {
	r.check(field, value, "max="+strconv.Itoa(n), "%s must be shorter than or equal to %d characters", field, n)
}

// MaxBytes bounds the encoded length of value.
func (r *Result) MaxBytes(field, value string, n int) {
	r.check(field, []byte(value), "max="+strconv.Itoa(n), "%s must be at most %d bytes long", field, n)
}

func (r *Result) OneOf(field, value string, allowed ...string) {
	r.check(field, value, "oneof="+strings.Join(allowed, " "),
		"%s must be one of the following values: %s", field, strings.Join(allowed, ", "))
}
