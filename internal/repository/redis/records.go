// Package redis stores accounts and reviews in Redis. Records are JSON
// strings; uniqueness is held by SETNX index keys and per-account and
// per-movie sorted sets order reviews by creation time.
package redis

import (
	"time"

	"github.com/utafrali/reelreviews/internal/domain"
)

const (
	accountPrefix      = "account:"
	accountEmailPrefix = "account:email:"
	reviewPrefix       = "review:"
	reviewPairPrefix   = "review:pair:"
	userReviewsPrefix  = "reviews:user:"
	movieReviewsPrefix = "reviews:movie:"
)

func accountKey(id string) string         { return accountPrefix + id }
func accountEmailKey(email string) string { return accountEmailPrefix + email }
func reviewKey(id string) string          { return reviewPrefix + id }
func userReviewsKey(userID string) string { return userReviewsPrefix + userID }
func movieReviewsKey(id string) string    { return movieReviewsPrefix + id }

func reviewPairKey(userID, movieID string) string {
	return reviewPairPrefix + userID + ":" + movieID
}

type accountRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func newAccountRecord(a *domain.Account) accountRecord {
	return accountRecord{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	}
}

func (r accountRecord) toDomain() domain.Account {
	return domain.Account{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

type reviewRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MovieID    string    `json:"movie_id"`
	Rating     int       `json:"rating"`
	ReviewText *string   `json:"review_text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func newReviewRecord(rv *domain.Review) reviewRecord {
	return reviewRecord{
		ID:         rv.ID,
		UserID:     rv.UserID,
		MovieID:    rv.MovieID,
		Rating:     rv.Rating,
		ReviewText: rv.ReviewText,
		CreatedAt:  rv.CreatedAt,
	}
}

func (r reviewRecord) toDomain() domain.Review {
	return domain.Review{
		ID:         r.ID,
		UserID:     r.UserID,
		MovieID:    r.MovieID,
		Rating:     r.Rating,
		ReviewText: r.ReviewText,
		CreatedAt:  r.CreatedAt,
	}
}
