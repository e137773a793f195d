// Package validate builds the request validator shared by the handlers.
package validate

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// signed one-time password: <id>.<signature>, both base64url
var otpRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

// BcryptMaxBytes is the longest password bcrypt accepts.
const BcryptMaxBytes = 72

// New returns a validator that reports json field names and knows the "otp" and "bcryptlen" tags.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}

		return name
	})

	_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return otpRegexp.MatchString(fl.Field().String())
	})

	// * max считает руны, bcrypt считает байты
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= BcryptMaxBytes
	})

	return v
}
