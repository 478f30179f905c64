package shared

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// NewValidator returns a validator with the application's custom rules
// registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("mobile10", func(fl validator.FieldLevel) bool {
		return ValidMobileNumber(fl.Field().String())
	})
	return v
}

// StrongPassword reports whether a password meets the minimum-strength rule:
// length >= 8 with at least one uppercase, one lowercase, and one digit.
func StrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// ValidMobileNumber reports whether s is exactly ten digits.
func ValidMobileNumber(s string) bool {
	return mobilePattern.MatchString(s)
}
