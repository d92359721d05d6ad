// Package validation provides custom validation rules for the application.
package validation

import (
	"net/netip"
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/captoken/internal/errors"
)

// maxResourcePathLength bounds resource paths so encoded tokens stay a manageable size.
const maxResourcePathLength = 1024

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// ResourcePath validates an absolute resource path: starts with "/", has at least
// one segment, no empty or dot segments, no whitespace, no trailing slash.
var ResourcePath = validation.NewStringRuleWithError(
	IsResourcePath,
	validation.NewError(
		"validation_resource_path",
		"must be an absolute resource path with no empty or dot segments",
	),
)

// IsResourcePath reports whether s is a well-formed absolute resource path.
// Exposed for callers that need the predicate outside a validation chain.
func IsResourcePath(s string) bool {
	if s == "" || s == "/" || !strings.HasPrefix(s, "/") {
		return false
	}
	if len(s) > maxResourcePathLength {
		return false
	}
	if strings.HasSuffix(s, "/") {
		return false
	}
	if strings.IndexFunc(s, unicode.IsSpace) != -1 {
		return false
	}
	for _, segment := range strings.Split(s[1:], "/") {
		if segment == "" || segment == "." || segment == ".." {
			return false
		}
	}
	return true
}

// IPConstraint validates a caller IP restriction: a single IP address or a CIDR range.
var IPConstraint = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_ip_constraint_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if _, err := netip.ParsePrefix(s); err == nil {
		return nil
	}
	if _, err := netip.ParseAddr(s); err == nil {
		return nil
	}
	return validation.NewError("validation_ip_constraint", "must be an IP address or CIDR range")
})
