package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique indexes uniqueness depends on. It is
// idempotent and runs at startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(AccountsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("accounts_email_key").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create accounts indexes: %w", err)
	}

	_, err = db.Collection(ReviewsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "movie_id", Value: 1}},
			Options: options.Index().SetName("reviews_user_movie_key").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}},
			Options: options.Index().SetName("idx_reviews_movie_id"),
		},
	})
	if err != nil {
		return fmt.Errorf("create reviews indexes: %w", err)
	}
	return nil
}
