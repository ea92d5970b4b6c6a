package repository

import (
	"context"

	"github.com/utafrali/reelreviews/internal/domain"
)

// FindOptions controls what an account lookup loads.
type FindOptions struct {
	// IncludeCredentialHash loads PasswordHash. Only the authentication path
	// sets it.
	IncludeCredentialHash bool
}

// AccountRepository defines the interface for account persistence operations.
type AccountRepository interface {
	// Create inserts a new account. A taken email fails with
	// domain.ErrDuplicateAccount from the store's unique constraint.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by its identifier.
	GetByID(ctx context.Context, id string, opts FindOptions) (*domain.Account, error)

	// GetByEmail retrieves an account by its exact email.
	GetByEmail(ctx context.Context, email string, opts FindOptions) (*domain.Account, error)

	// ListByIDs returns the accounts that exist among ids, without hashes.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Account, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review. A second review for the same
	// (user, movie) pair fails with domain.ErrDuplicateReview.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByUserID returns the user's reviews, newest first.
	ListByUserID(ctx context.Context, userID string) ([]domain.Review, error)

	// ListByMovieID returns the movie's reviews, newest first.
	ListByMovieID(ctx context.Context, movieID string) ([]domain.Review, error)

	// DeleteOwned removes the review only if userID owns it, and reports
	// whether a row was removed.
	DeleteOwned(ctx context.Context, id, userID string) (bool, error)
}
