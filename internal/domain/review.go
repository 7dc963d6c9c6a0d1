package domain

import "time"

type Review struct {
	ID                 int64     `json:"id"`
	ProductID          int64     `json:"product_id"`
	UserID             int64     `json:"user_id"`
	Username           string    `json:"username,omitempty"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title"`
	Comment            string    `json:"comment"`
	HelpfulVotes       int       `json:"helpful_votes"`
	UnhelpfulVotes     int       `json:"unhelpful_votes"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ReviewStats struct {
	AverageRating          float64     `json:"average_rating"`
	TotalReviews           int         `json:"total_reviews"`
	RatingDistribution     map[int]int `json:"rating_distribution"`
	VerifiedPurchasesCount int         `json:"verified_purchases_count"`
}

// ReviewDraft is the author-editable part of a review.
type ReviewDraft struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

type VoteCounts struct {
	HelpfulVotes   int `json:"helpful_votes"`
	UnhelpfulVotes int `json:"unhelpful_votes"`
}
