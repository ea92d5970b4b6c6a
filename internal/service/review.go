package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/internal/repository"
	apperrors "github.com/utafrali/reelreviews/pkg/errors"
)

// CreateReviewInput holds the parameters for creating a review. Rating is a
// pointer so an absent rating is told apart from a rating of 0.
type CreateReviewInput struct {
	UserID     string
	MovieID    string
	Rating     *int
	ReviewText *string
}

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	reviews  repository.ReviewRepository
	accounts repository.AccountRepository
	events   EventPublisher
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	accounts repository.AccountRepository,
	events EventPublisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		accounts: accounts,
		events:   events,
		logger:   logger,
	}
}

// Create stores a new review. A second review of the same movie by the same
// account fails with DUPLICATE_REVIEW from the store's unique index.
func (s *ReviewService) Create(ctx context.Context, input CreateReviewInput) (*domain.Review, error) {
	movieID := strings.TrimSpace(input.MovieID)
	switch {
	case input.UserID == "":
		return nil, domain.MissingField("userId")
	case movieID == "":
		return nil, domain.MissingField("movieId")
	case input.Rating == nil:
		return nil, domain.MissingField("rating")
	}
	if !domain.ValidRating(*input.Rating) {
		return nil, domain.InvalidRating(*input.Rating)
	}

	review := &domain.Review{
		ID:         uuid.New().String(),
		UserID:     input.UserID,
		MovieID:    movieID,
		Rating:     *input.Rating,
		ReviewText: domain.NormalizeReviewText(input.ReviewText),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.events.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("movie_id", review.MovieID),
		slog.String("user_id", review.UserID),
		slog.Int("rating", review.Rating),
	)
	return review, nil
}

// ListByAccount returns the account's reviews. No reviews is an empty slice.
func (s *ReviewService) ListByAccount(ctx context.Context, userID string) ([]domain.Review, error) {
	reviews, err := s.reviews.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by account: %w", err)
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, nil
}

// ListByMovie returns the movie's reviews joined with their owners' public
// fields. A review whose owner is gone keeps only the owner id.
func (s *ReviewService) ListByMovie(ctx context.Context, movieID string) ([]domain.ReviewWithAuthor, error) {
	reviews, err := s.reviews.ListByMovieID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by movie: %w", err)
	}
	return s.WithAuthors(ctx, reviews)
}

// WithAuthors joins reviews with their owners in one account lookup.
func (s *ReviewService) WithAuthors(ctx context.Context, reviews []domain.Review) ([]domain.ReviewWithAuthor, error) {
	out := make([]domain.ReviewWithAuthor, 0, len(reviews))
	if len(reviews) == 0 {
		return out, nil
	}

	seen := make(map[string]struct{}, len(reviews))
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if _, ok := seen[r.UserID]; !ok {
			seen[r.UserID] = struct{}{}
			ids = append(ids, r.UserID)
		}
	}

	accounts, err := s.accounts.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load review authors: %w", err)
	}
	byID := make(map[string]domain.PublicAccount, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID] = accounts[i].Public()
	}

	for _, r := range reviews {
		author, ok := byID[r.UserID]
		if !ok {
			author = domain.PublicAccount{ID: r.UserID}
		}
		out = append(out, domain.ReviewWithAuthor{Review: r, User: author})
	}
	return out, nil
}

// Delete removes a review owned by requestingUserID. The delete itself is
// conditional on ownership; only when it removes nothing is the review looked
// up to report NOT_FOUND or FORBIDDEN.
func (s *ReviewService) Delete(ctx context.Context, reviewID, requestingUserID string) error {
	if reviewID == "" {
		return domain.MissingField("reviewId")
	}

	deleted, err := s.reviews.DeleteOwned(ctx, reviewID, requestingUserID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if !deleted {
		existing, err := s.reviews.GetByID(ctx, reviewID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			return fmt.Errorf("look up review: %w", err)
		}
		if existing.UserID != requestingUserID {
			s.logger.WarnContext(ctx, "review delete forbidden",
				slog.String("review_id", reviewID),
				slog.String("user_id", requestingUserID),
			)
			return apperrors.Forbidden("you can only delete your own reviews")
		}
		return apperrors.Internal(fmt.Errorf("delete review %s: owned row was not removed", reviewID))
	}

	if err := s.events.PublishReviewDeleted(ctx, reviewID, requestingUserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("user_id", requestingUserID),
	)
	return nil
}
