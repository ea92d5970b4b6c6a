package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/pkg/database"
)

const (
	insertReviewSQL = `
		INSERT INTO reviews (id, user_id, movie_id, rating, review_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	selectReviewSQL = `SELECT id, user_id, movie_id, rating, review_text, created_at FROM reviews`

	deleteOwnedReviewSQL = `DELETE FROM reviews WHERE id = $1 AND user_id = $2`
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review. The (user_id, movie_id) unique constraint
// decides concurrent creates for the same pair.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateReview", insertReviewSQL)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, insertReviewSQL,
		rv.ID,
		rv.UserID,
		rv.MovieID,
		rv.Rating,
		rv.ReviewText,
		rv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.DuplicateReview(rv.MovieID)
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	query := selectReviewSQL + ` WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "GetReviewByID", query)
	defer func() { end(err) }()

	var rv domain.Review
	err = r.db.QueryRow(ctx, query, id).Scan(
		&rv.ID, &rv.UserID, &rv.MovieID, &rv.Rating, &rv.ReviewText, &rv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, domain.ReviewNotFound(id)
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return &rv, nil
}

// ListByUserID returns all reviews written by userID.
func (r *ReviewRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Review, error) {
	return r.list(ctx, "ListReviewsByUserID", selectReviewSQL+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListByMovieID returns all reviews of movieID.
func (r *ReviewRepository) ListByMovieID(ctx context.Context, movieID string) ([]domain.Review, error) {
	return r.list(ctx, "ListReviewsByMovieID", selectReviewSQL+` WHERE movie_id = $1 ORDER BY created_at DESC`, movieID)
}

func (r *ReviewRepository) list(ctx context.Context, op, query string, arg string) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	// pgx reports a malformed uuid argument either from Query or, once the
	// server responds, from rows.Err. Either way no row can match.
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		if isInvalidID(err) {
			return []domain.Review{}, nil
		}
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err = rows.Scan(&rv.ID, &rv.UserID, &rv.MovieID, &rv.Rating, &rv.ReviewText, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err = rows.Err(); err != nil {
		if isInvalidID(err) {
			return []domain.Review{}, nil
		}
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

// DeleteOwned deletes the review only when userID owns it.
func (r *ReviewRepository) DeleteOwned(ctx context.Context, id, userID string) (_ bool, err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteOwnedReview", deleteOwnedReviewSQL)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, deleteOwnedReviewSQL, id, userID)
	if err != nil {
		if isInvalidID(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete review: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
