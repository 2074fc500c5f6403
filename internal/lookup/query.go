// Package lookup runs the zip code submission flow: validate the query,
// fetch it from the lookup service, and render the outcome into a Page.
package lookup

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/zipfinder/internal/domain"
)

// IsValidQuery reports whether the leading integer of s is non-zero.
//
// Leading whitespace is skipped and an optional sign is accepted, then the
// longest run of ASCII digits is read. Anything after the run is ignored, so
// "123abc" is valid while "abcde", "" and "00000" are not.
func IsValidQuery(s string) bool {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}

	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if s[i] != '0' {
			return true
		}
	}
	return false
}

// Form is the submitted lookup form.
type Form struct {
	ZipCode string `form:"zip-code" validate:"required,lookupquery"`
}

// FormValidator wraps the go-playground validator with the lookup rules registered.
type FormValidator struct {
	v *validator.Validate
}

// NewFormValidator creates a validator with the "lookupquery" tag bound to IsValidQuery.
func NewFormValidator() *FormValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return fld.Name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("lookupquery", func(fl validator.FieldLevel) bool {
		return IsValidQuery(fl.Field().String())
	})

	return &FormValidator{v: v}
}

// Validate checks the form and returns an EINVALID domain error on failure.
func (fv *FormValidator) Validate(f Form) error {
	const op = "lookup.validate"

	if err := fv.v.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.WrapError(err, domain.EINVALID, op, "Please enter a valid zip code")
		}
		return domain.Internal(err, op, "failed to validate form")
	}
	return nil
}
