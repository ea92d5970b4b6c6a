package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/pkg/database"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

// ReviewRepository implements repository.ReviewRepository using MongoDB.
type ReviewRepository struct {
	coll *mongo.Collection
}

// NewReviewRepository creates a new MongoDB-backed review repository.
func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(ReviewsCollection)}
}

// Create inserts a new review. The unique (user_id, movie_id) index decides
// concurrent creates for the same pair.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	ctx, end := database.TraceOp(ctx, database.SystemMongo, "CreateReview", ReviewsCollection+".insertOne")
	defer func() { end(err) }()

	if _, err = r.coll.InsertOne(ctx, newReviewDocument(rv)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.DuplicateReview(rv.MovieID)
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemMongo, "GetReviewByID", ReviewsCollection+".findOne")
	defer func() { end(err) }()

	var doc reviewDocument
	if err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ReviewNotFound(id)
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	rv := doc.toDomain()
	return &rv, nil
}

// ListByUserID returns all reviews written by userID.
func (r *ReviewRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Review, error) {
	return r.list(ctx, "ListReviewsByUserID", bson.D{{Key: "user_id", Value: userID}})
}

// ListByMovieID returns all reviews of movieID.
func (r *ReviewRepository) ListByMovieID(ctx context.Context, movieID string) ([]domain.Review, error) {
	return r.list(ctx, "ListReviewsByMovieID", bson.D{{Key: "movie_id", Value: movieID}})
}

func (r *ReviewRepository) list(ctx context.Context, op string, filter bson.D) (_ []domain.Review, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemMongo, op, ReviewsCollection+".find")
	defer func() { end(err) }()

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}

	var docs []reviewDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}

	reviews := make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		reviews = append(reviews, d.toDomain())
	}
	return reviews, nil
}

// DeleteOwned deletes the review only when userID owns it.
func (r *ReviewRepository) DeleteOwned(ctx context.Context, id, userID string) (_ bool, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemMongo, "DeleteOwnedReview", ReviewsCollection+".deleteOne")
	defer func() { end(err) }()

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: userID}})
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	return res.DeletedCount > 0, nil
}
