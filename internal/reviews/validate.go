package reviews

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	MaxTitleLength   = 200
	MaxCommentLength = 2000
)

// Validate reports every rule the draft breaks. Lengths are counted in characters.
func Validate(d domain.ReviewDraft) error {
	var problems []string
	if d.Rating < 1 || d.Rating > 5 {
		problems = append(problems, "rating is required and must be between 1 and 5")
	}
	if utf8.RuneCountInString(d.Title) > MaxTitleLength {
		problems = append(problems, fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	if utf8.RuneCountInString(d.Comment) > MaxCommentLength {
		problems = append(problems, fmt.Sprintf("comment must be at most %d characters", MaxCommentLength))
	}
	return domain.NewValidationError(problems)
}

func normalize(d domain.ReviewDraft) domain.ReviewDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Comment = strings.TrimSpace(d.Comment)
	return d
}
