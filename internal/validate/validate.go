// Package validate normalizes and bound-checks tool input parameters before
// any network call is made.
package validate

import (
	"fmt"
	"strings"

	"crypto-trading-desk/internal/domain"
)

// Symbol trims and uppercases s; it must be 1-10 alphabetic characters.
func Symbol(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &domain.ValidationError{Field: "symbol", Message: "must not be empty"}
	}
	if len(s) > 10 {
		return "", &domain.ValidationError{Field: "symbol", Message: "must be at most 10 characters"}
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return "", &domain.ValidationError{Field: "symbol", Message: "must contain only letters"}
		}
	}
	return strings.ToUpper(s), nil
}

// CoinID trims and lowercases s; it must be lowercase alphanumeric with
// hyphens, at most 100 characters.
func CoinID(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", &domain.ValidationError{Field: "coin_id", Message: "must not be empty"}
	}
	if len(s) > 100 {
		return "", &domain.ValidationError{Field: "coin_id", Message: "must be at most 100 characters"}
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return "", &domain.ValidationError{Field: "coin_id", Message: "must contain only lowercase letters, digits, and hyphens"}
		}
	}
	return s, nil
}

// Exchange checks case-insensitive membership in allowed and returns the
// lowercase venue name.
func Exchange(s string, allowed []string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, venue := range allowed {
		if s == venue {
			return s, nil
		}
	}
	return "", &domain.ValidationError{
		Field:   "exchange",
		Message: fmt.Sprintf("unsupported exchange %q, expected one of %s", s, strings.Join(allowed, ", ")),
	}
}

// Timeframe checks membership in the supported interval enum.
func Timeframe(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, iv := range domain.SupportedIntervals {
		if s == iv {
			return s, nil
		}
	}
	return "", &domain.ValidationError{
		Field:   "timeframe",
		Message: fmt.Sprintf("unsupported timeframe %q, expected one of %s", s, strings.Join(domain.SupportedIntervals, ", ")),
	}
}

// PositiveInt checks v is a positive integer, optionally bounded by max
// (max <= 0 disables the upper bound).
func PositiveInt(v int, name string, max int) (int, error) {
	if v <= 0 {
		return 0, &domain.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	if max > 0 && v > max {
		return 0, &domain.ValidationError{Field: name, Message: fmt.Sprintf("must be at most %d", max)}
	}
	return v, nil
}
