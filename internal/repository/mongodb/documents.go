package mongodb

import (
	"time"

	"github.com/utafrali/reelreviews/internal/domain"
)

// Collection names.
const (
	AccountsCollection = "accounts"
	ReviewsCollection  = "reviews"
)

type accountDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

func newAccountDocument(a *domain.Account) accountDocument {
	return accountDocument{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	}
}

func (d accountDocument) toDomain() domain.Account {
	return domain.Account{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

type reviewDocument struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	MovieID    string    `bson:"movie_id"`
	Rating     int       `bson:"rating"`
	ReviewText *string   `bson:"review_text,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
}

func newReviewDocument(r *domain.Review) reviewDocument {
	return reviewDocument{
		ID:         r.ID,
		UserID:     r.UserID,
		MovieID:    r.MovieID,
		Rating:     r.Rating,
		ReviewText: r.ReviewText,
		CreatedAt:  r.CreatedAt,
	}
}

func (d reviewDocument) toDomain() domain.Review {
	return domain.Review{
		ID:         d.ID,
		UserID:     d.UserID,
		MovieID:    d.MovieID,
		Rating:     d.Rating,
		ReviewText: d.ReviewText,
		CreatedAt:  d.CreatedAt,
	}
}
