package form

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/bankctl/internal/common"
)

// Validator checks a value and returns a message, or "" when it is valid.
// Every validator except Required accepts the empty string.
type Validator func(value string) string

const emailPattern = `^[^@\s]+@[^@\s]+\.[^@\s]+$`

// Required rejects blank values.
func Required() Validator {
	return func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "is required"
		}
		return ""
	}
}

// MinLength rejects values shorter than n characters.
func MinLength(n int) Validator {
	return func(v string) string {
		if v != "" && utf8.RuneCountInString(v) < n {
			return fmt.Sprintf("must be at least %d characters", n)
		}
		return ""
	}
}

// MaxLength rejects values longer than n characters.
func MaxLength(n int) Validator {
	return func(v string) string {
		if utf8.RuneCountInString(v) > n {
			return fmt.Sprintf("must be at most %d characters", n)
		}
		return ""
	}
}

// Email rejects values that do not look like an address.
func Email() Validator {
	return Pattern(emailPattern, "must be a valid email address")
}

// Numeric rejects values that are not numbers.
func Numeric() Validator {
	return func(v string) string {
		if v == "" {
			return ""
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return "must be a number"
		}
		return ""
	}
}

// Positive rejects numbers <= 0.
func Positive() Validator {
	return func(v string) string {
		if v == "" {
			return ""
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return "must be a number"
		}
		if n <= 0 {
			return "must be greater than zero"
		}
		return ""
	}
}

// Pattern rejects values that do not match expr.
func Pattern(expr, message string) Validator {
	return func(v string) string {
		if v == "" {
			return ""
		}
		ok, err := common.MatchRegex(expr, v)
		if err != nil {
			return "cannot be checked: " + err.Error()
		}
		if !ok {
			return message
		}
		return ""
	}
}

// OneOf rejects values outside allowed.
func OneOf(allowed ...string) Validator {
	return func(v string) string {
		if v == "" || slices.Contains(allowed, v) {
			return ""
		}
		return "must be one of " + strings.Join(allowed, ", ")
	}
}
