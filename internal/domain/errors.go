package domain

import (
	"fmt"
	"net/http"

	apperrors "github.com/utafrali/reelreviews/pkg/errors"
)

// Domain sentinels. Each wraps the generic condition it refines so handlers
// can match either.
var (
	ErrDuplicateAccount   = fmt.Errorf("duplicate account: %w", apperrors.ErrAlreadyExists)
	ErrDuplicateReview    = fmt.Errorf("duplicate review: %w", apperrors.ErrAlreadyExists)
	ErrAccountNotFound    = fmt.Errorf("account not found: %w", apperrors.ErrNotFound)
	ErrReviewNotFound     = fmt.Errorf("review not found: %w", apperrors.ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthenticated)
	ErrInvalidRating      = fmt.Errorf("invalid rating: %w", apperrors.ErrInvalidInput)
	ErrMissingField       = fmt.Errorf("missing field: %w", apperrors.ErrInvalidInput)
)

// DuplicateAccount is returned when the email is already registered.
func DuplicateAccount(email string) *apperrors.AppError {
	err := apperrors.AlreadyExists("account", "email", email)
	err.Code = "DUPLICATE_ACCOUNT"
	err.Err = ErrDuplicateAccount
	return err
}

// DuplicateReview is returned when the account already reviewed the movie.
func DuplicateReview(movieID string) *apperrors.AppError {
	return apperrors.New("DUPLICATE_REVIEW",
		fmt.Sprintf("you have already reviewed movie %s", movieID),
		http.StatusConflict, ErrDuplicateReview)
}

// AccountNotFound is returned when no account matches the lookup.
func AccountNotFound() *apperrors.AppError {
	return apperrors.New("ACCOUNT_NOT_FOUND", "account not found",
		http.StatusNotFound, ErrAccountNotFound)
}

// ReviewNotFound is returned when no review has the given id.
func ReviewNotFound(id string) *apperrors.AppError {
	err := apperrors.NotFound("review", id)
	err.Err = ErrReviewNotFound
	return err
}

// InvalidCredentials is returned when the password does not match.
func InvalidCredentials() *apperrors.AppError {
	return apperrors.New("INVALID_CREDENTIALS", "invalid email or password",
		http.StatusUnauthorized, ErrInvalidCredentials)
}

// InvalidRating is returned for a rating outside [MinRating, MaxRating].
func InvalidRating(rating int) *apperrors.AppError {
	return apperrors.New("INVALID_RATING",
		fmt.Sprintf("rating must be between %d and %d, got %d", MinRating, MaxRating, rating),
		http.StatusBadRequest, ErrInvalidRating)
}

// MissingField is returned when a required argument is absent.
func MissingField(field string) *apperrors.AppError {
	return apperrors.New("MISSING_FIELD",
		fmt.Sprintf("%s is required", field),
		http.StatusBadRequest, ErrMissingField)
}
