package coupon

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	minCodeLength = 3
	maxCodeLength = 50
)

// NormalizeCode trims and upper-cases a user-typed code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode checks the format of a code before it is sent anywhere and returns it normalized.
func ValidateCode(code string) (string, error) {
	normalized := NormalizeCode(code)
	var problems []string

	n := utf8.RuneCountInString(normalized)
	switch {
	case n == 0:
		problems = append(problems, "coupon code is required")
	case n < minCodeLength:
		problems = append(problems, fmt.Sprintf("coupon code must be at least %d characters", minCodeLength))
	case n > maxCodeLength:
		problems = append(problems, fmt.Sprintf("coupon code must be at most %d characters", maxCodeLength))
	}
	for _, r := range normalized {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			problems = append(problems, "coupon code may only contain letters, digits, '-' and '_'")
			break
		}
	}
	if err := domain.NewValidationError(problems); err != nil {
		return "", err
	}
	return normalized, nil
}
