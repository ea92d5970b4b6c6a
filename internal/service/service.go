package service

import (
	"context"

	"github.com/utafrali/reelreviews/internal/domain"
)

// EventPublisher receives domain events after a successful mutation.
// Publishing failures are logged and never fail the mutation.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, account *domain.Account) error
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishReviewDeleted(ctx context.Context, reviewID, userID string) error
}
