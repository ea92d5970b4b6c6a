package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/internal/repository"
)

var (
	_ repository.AccountRepository = (*AccountRepository)(nil)
	_ repository.ReviewRepository  = (*ReviewRepository)(nil)
)

func setupTestRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func sampleAccount(id, email string) *domain.Account {
	return &domain.Account{
		ID:           id,
		Name:         "Ada",
		Email:        email,
		PasswordHash: "$2a$04$hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func sampleReview(id, userID, movieID string, at time.Time) *domain.Review {
	return &domain.Review{ID: id, UserID: userID, MovieID: movieID, Rating: 4, CreatedAt: at}
}

// --- Accounts ---

func TestAccountRepository_CreateAndGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewAccountRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleAccount("a-1", "ada@x.com")))

	got, err := repo.GetByID(ctx, "a-1", repository.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ada@x.com", got.Email)
	assert.Empty(t, got.PasswordHash)

	withHash, err := repo.GetByEmail(ctx, "ada@x.com", repository.FindOptions{IncludeCredentialHash: true})
	require.NoError(t, err)
	assert.Equal(t, "a-1", withHash.ID)
	assert.Equal(t, "$2a$04$hash", withHash.PasswordHash)
}

func TestAccountRepository_DuplicateEmail(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewAccountRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleAccount("a-1", "ada@x.com")))
	err := repo.Create(ctx, sampleAccount("a-2", "ada@x.com"))
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	_, err = repo.GetByID(ctx, "a-2", repository.FindOptions{})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepository_NotFound(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewAccountRepository(client)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com", repository.FindOptions{})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepository_ListByIDs(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewAccountRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleAccount("a-1", "ada@x.com")))
	require.NoError(t, repo.Create(ctx, sampleAccount("a-2", "grace@x.com")))

	got, err := repo.ListByIDs(ctx, []string{"a-1", "missing", "a-2"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, a := range got {
		assert.Empty(t, a.PasswordHash)
	}

	empty, err := repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestAccountRepository_ConcurrentCreateSameEmail(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewAccountRepository(client)
	ctx := context.Background()

	const workers = 20
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, sampleAccount(fmt.Sprintf("a-%d", i), "ada@x.com"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
	}
	assert.Equal(t, 1, succeeded)

	got, err := repo.GetByEmail(ctx, "ada@x.com", repository.FindOptions{})
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, got.ID, repository.FindOptions{})
	assert.NoError(t, err)
}

func TestAccountRepository_ConnectionError(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewAccountRepository(client)
	mr.Close()

	err := repo.Create(context.Background(), sampleAccount("a-1", "ada@x.com"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateAccount)
}

// --- Reviews ---

func TestReviewRepository_CreateListNewestFirst(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewReviewRepository(client)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, repo.Create(ctx, sampleReview("r-1", "u-1", "42", base)))
	require.NoError(t, repo.Create(ctx, sampleReview("r-2", "u-1", "43", base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, sampleReview("r-3", "u-2", "42", base.Add(2*time.Minute))))

	mine, err := repo.ListByUserID(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "r-2", mine[0].ID)
	assert.Equal(t, "r-1", mine[1].ID)

	movie, err := repo.ListByMovieID(ctx, "42")
	require.NoError(t, err)
	require.Len(t, movie, 2)
	assert.Equal(t, "r-3", movie[0].ID)

	none, err := repo.ListByMovieID(ctx, "999")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestReviewRepository_DuplicatePair(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewReviewRepository(client)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, sampleReview("r-1", "u-1", "42", now)))
	err := repo.Create(ctx, sampleReview("r-2", "u-1", "42", now))
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)

	_, err = repo.GetByID(ctx, "r-2")
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)
}

func TestReviewRepository_ConcurrentCreateSamePair(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewReviewRepository(client)
	ctx := context.Background()
	now := time.Now().UTC()

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, sampleReview("r-"+string(rune('a'+i)), "u-1", "42", now))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicateReview)
	}
	assert.Equal(t, 1, succeeded)

	got, err := repo.ListByUserID(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReviewRepository_DeleteOwned(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewReviewRepository(client)
	ctx := context.Background()
	text := "great"
	rv := sampleReview("r-1", "u-1", "42", time.Now().UTC())
	rv.ReviewText = &text
	require.NoError(t, repo.Create(ctx, rv))

	deleted, err := repo.DeleteOwned(ctx, "r-1", "u-2")
	require.NoError(t, err)
	assert.False(t, deleted)
	got, err := repo.GetByID(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, &text, got.ReviewText)

	deleted, err = repo.DeleteOwned(ctx, "r-1", "u-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, mr.Exists(reviewKey("r-1")))
	assert.False(t, mr.Exists(reviewPairKey("u-1", "42")))

	mine, err := repo.ListByUserID(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, mine)

	// The pair is free again.
	require.NoError(t, repo.Create(ctx, sampleReview("r-2", "u-1", "42", time.Now().UTC())))

	deleted, err = repo.DeleteOwned(ctx, "missing", "u-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}
