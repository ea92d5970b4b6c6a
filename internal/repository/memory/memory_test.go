package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/internal/repository"
)

// Compile-time interface checks.
var (
	_ repository.AccountRepository = (*AccountRepository)(nil)
	_ repository.ReviewRepository  = (*ReviewRepository)(nil)
)

func TestAccountRepository_CreateAndLookup(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	a := &domain.Account{ID: "a-1", Name: "Ada", Email: "ada@x.com", PasswordHash: "h"}

	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.GetByEmail(ctx, "ada@x.com", repository.FindOptions{IncludeCredentialHash: true})
	require.NoError(t, err)
	assert.Equal(t, "h", got.PasswordHash)

	got, err = repo.GetByID(ctx, "a-1", repository.FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, got.PasswordHash)

	_, err = repo.GetByEmail(ctx, "ADA@x.com", repository.FindOptions{})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound, "email match is case-sensitive")

	_, err = repo.GetByID(ctx, "a-404", repository.FindOptions{})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepository_DuplicateEmail(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Account{ID: "a-1", Email: "ada@x.com"}))
	err := repo.Create(ctx, &domain.Account{ID: "a-2", Email: "ada@x.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
}

func TestAccountRepository_ListByIDs(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.Account{ID: "a-1", Email: "ada@x.com", PasswordHash: "h"}))
	require.NoError(t, repo.Create(ctx, &domain.Account{ID: "a-2", Email: "grace@x.com", PasswordHash: "h"}))

	got, err := repo.ListByIDs(ctx, []string{"a-2", "a-missing", "a-1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a-2", got[0].ID)
	assert.Empty(t, got[0].PasswordHash)
}

func TestAccountRepository_ConcurrentCreateSameEmail(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	start := make(chan struct{})

	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = repo.Create(ctx, &domain.Account{
				ID:    fmt.Sprintf("a-%d", i),
				Name:  "Ada",
				Email: "ada@x.com",
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateAccount):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, dup)
}

func TestReviewRepository_ConcurrentCreateSamePair(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	start := make(chan struct{})

	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = repo.Create(ctx, &domain.Review{
				ID:      fmt.Sprintf("r-%d", i),
				UserID:  "a-1",
				MovieID: "42",
				Rating:  3,
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateReview):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, dup)

	reviews, err := repo.ListByMovieID(ctx, "42")
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestReviewRepository_ListsNewestFirst(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &domain.Review{ID: "r-old", UserID: "a-1", MovieID: "1", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &domain.Review{ID: "r-new", UserID: "a-1", MovieID: "2", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &domain.Review{ID: "r-other", UserID: "a-2", MovieID: "1", CreatedAt: base}))

	mine, err := repo.ListByUserID(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "r-new", mine[0].ID)

	none, err := repo.ListByMovieID(ctx, "unreviewed")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestReviewRepository_DeleteOwned(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.Review{ID: "r-1", UserID: "a-1", MovieID: "42"}))

	ok, err := repo.DeleteOwned(ctx, "r-1", "a-2")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = repo.GetByID(ctx, "r-1")
	require.NoError(t, err, "non-owner delete must leave the review intact")

	ok, err = repo.DeleteOwned(ctx, "r-1", "a-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.GetByID(ctx, "r-1")
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)

	// The pair is free again.
	require.NoError(t, repo.Create(ctx, &domain.Review{ID: "r-2", UserID: "a-1", MovieID: "42"}))
}

func TestReviewRepository_ReturnsCopies(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()
	text := "original"
	require.NoError(t, repo.Create(ctx, &domain.Review{ID: "r-1", UserID: "a-1", MovieID: "42", ReviewText: &text}))

	text = "mutated"
	got, err := repo.GetByID(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "original", *got.ReviewText)
}
