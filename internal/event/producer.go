package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/reelreviews/internal/domain"
	pkgkafka "github.com/utafrali/reelreviews/pkg/kafka"
	"github.com/utafrali/reelreviews/pkg/logger"
)

// Aggregate types.
const (
	AggregateTypeAccount = "account"
	AggregateTypeReview  = "review"
)

// Kafka topics for review-domain events.
var (
	TopicAccountRegistered = pkgkafka.Topic(AggregateTypeAccount, "registered")
	TopicReviewCreated     = pkgkafka.Topic(AggregateTypeReview, "created")
	TopicReviewDeleted     = pkgkafka.Topic(AggregateTypeReview, "deleted")
)

// SourceService identifies events published by this service.
const SourceService = "reelreviews"

// AccountRegisteredData is the payload for an account.registered event.
type AccountRegisteredData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	MovieID string `json:"movie_id"`
	Rating  int    `json:"rating"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// Publisher writes an envelope to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes review-domain events. A Producer with no Publisher
// drops every event, which is how events are disabled.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer. kafka may be nil.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishAccountRegistered publishes an account.registered event.
func (p *Producer) PublishAccountRegistered(ctx context.Context, a *domain.Account) error {
	return p.publish(ctx, TopicAccountRegistered, a.ID, AggregateTypeAccount, AccountRegisteredData{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
	})
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, r.ID, AggregateTypeReview, ReviewCreatedData{
		ID:      r.ID,
		UserID:  r.UserID,
		MovieID: r.MovieID,
		Rating:  r.Rating,
	})
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, reviewID, userID string) error {
	return p.publish(ctx, TopicReviewDeleted, reviewID, AggregateTypeReview, ReviewDeletedData{
		ID:     reviewID,
		UserID: userID,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
