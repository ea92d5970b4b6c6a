package domain

import (
	"strings"
	"time"
)

// Rating bounds, inclusive.
const (
	MinRating = 0
	MaxRating = 5
)

// Review is one account's rating of one movie.
type Review struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	MovieID    string    `json:"movieId"`
	Rating     int       `json:"rating"`
	ReviewText *string   `json:"reviewText,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ReviewWithAuthor is a review joined with its owner's public fields.
type ReviewWithAuthor struct {
	Review
	User PublicAccount `json:"user"`
}

// ValidRating reports whether r is within [MinRating, MaxRating].
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// NormalizeReviewText returns nil for absent or blank text.
func NormalizeReviewText(text *string) *string {
	if text == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*text)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
