package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/pkg/database"
)

// maxDeleteAttempts bounds optimistic retries when a watched review changes
// between read and delete.
const maxDeleteAttempts = 3

// ReviewRepository implements repository.ReviewRepository using Redis.
type ReviewRepository struct {
	client *goredis.Client
}

// NewReviewRepository creates a new Redis-backed review repository.
func NewReviewRepository(client *goredis.Client) *ReviewRepository {
	return &ReviewRepository{client: client}
}

// Create stores a new review. Claiming the (user, movie) pair key with SETNX
// decides concurrent creates for the same pair.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "CreateReview", "SETNX "+reviewPairPrefix+" / MULTI SET ZADD")
	defer func() { end(err) }()

	data, err := json.Marshal(newReviewRecord(rv))
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}

	pair := reviewPairKey(rv.UserID, rv.MovieID)
	claimed, err := r.client.SetNX(ctx, pair, rv.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("redis claim review pair: %w", err)
	}
	if !claimed {
		return domain.DuplicateReview(rv.MovieID)
	}

	score := float64(rv.CreatedAt.UnixMicro())
	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, reviewKey(rv.ID), data, 0)
		pipe.ZAdd(ctx, userReviewsKey(rv.UserID), goredis.Z{Score: score, Member: rv.ID})
		pipe.ZAdd(ctx, movieReviewsKey(rv.MovieID), goredis.Z{Score: score, Member: rv.ID})
		return nil
	})
	if err != nil {
		_ = r.client.Del(context.WithoutCancel(ctx), pair).Err()
		return fmt.Errorf("redis store review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "GetReviewByID", "GET "+reviewPrefix)
	defer func() { end(err) }()

	rec, err := getReview(ctx, r.client, id)
	if err != nil {
		return nil, err
	}
	rv := rec.toDomain()
	return &rv, nil
}

// ListByUserID returns the user's reviews, newest first.
func (r *ReviewRepository) ListByUserID(ctx context.Context, userID string) (_ []domain.Review, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "ListReviewsByUser", "ZREVRANGE "+userReviewsPrefix)
	defer func() { end(err) }()

	return r.listIndex(ctx, userReviewsKey(userID))
}

// ListByMovieID returns the movie's reviews, newest first.
func (r *ReviewRepository) ListByMovieID(ctx context.Context, movieID string) (_ []domain.Review, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "ListReviewsByMovie", "ZREVRANGE "+movieReviewsPrefix)
	defer func() { end(err) }()

	return r.listIndex(ctx, movieReviewsKey(movieID))
}

func (r *ReviewRepository) listIndex(ctx context.Context, index string) ([]domain.Review, error) {
	ids, err := r.client.ZRevRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list review index: %w", err)
	}
	reviews := []domain.Review{}
	if len(ids) == 0 {
		return reviews, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = reviewKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget reviews: %w", err)
	}

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec reviewRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal review: %w", err)
		}
		reviews = append(reviews, rec.toDomain())
	}
	return reviews, nil
}

// DeleteOwned removes the review and its index entries if userID owns it.
// The review key is watched so the ownership check and the delete commit
// together.
func (r *ReviewRepository) DeleteOwned(ctx context.Context, id, userID string) (deleted bool, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "DeleteOwnedReview", "WATCH "+reviewPrefix+" / MULTI DEL ZREM")
	defer func() { end(err) }()

	key := reviewKey(id)
	txn := func(tx *goredis.Tx) error {
		deleted = false
		rec, err := getReview(ctx, tx, id)
		if err != nil {
			if errors.Is(err, domain.ErrReviewNotFound) {
				return nil
			}
			return err
		}
		if rec.UserID != userID {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, key, reviewPairKey(rec.UserID, rec.MovieID))
			pipe.ZRem(ctx, userReviewsKey(rec.UserID), id)
			pipe.ZRem(ctx, movieReviewsKey(rec.MovieID), id)
			return nil
		})
		if err == nil {
			deleted = true
		}
		return err
	}

	for attempt := 0; attempt < maxDeleteAttempts; attempt++ {
		err = r.client.Watch(ctx, txn, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return false, fmt.Errorf("redis delete review: %w", err)
	}
	return deleted, nil
}

// getter is satisfied by both *goredis.Client and *goredis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func getReview(ctx context.Context, c getter, id string) (reviewRecord, error) {
	var rec reviewRecord
	data, err := c.Get(ctx, reviewKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return rec, domain.ReviewNotFound(id)
		}
		return rec, fmt.Errorf("redis get review: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("unmarshal review: %w", err)
	}
	return rec, nil
}
