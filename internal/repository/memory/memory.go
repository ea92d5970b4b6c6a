// Package memory provides process-local repositories for development and
// tests. Uniqueness is checked and claimed under one lock, so concurrent
// creates behave like a unique index.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/internal/repository"
)

// AccountRepository implements repository.AccountRepository in memory.
type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.Account
	byEmail map[string]string
}

// NewAccountRepository creates an empty in-memory account repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
	}
}

// Create stores a copy of a.
func (r *AccountRepository) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[a.Email]; taken {
		return domain.DuplicateAccount(a.Email)
	}
	r.byID[a.ID] = *a
	r.byEmail[a.Email] = a.ID
	return nil
}

// GetByID returns a copy of the account with the given id.
func (r *AccountRepository) GetByID(_ context.Context, id string, opts repository.FindOptions) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(id, opts)
}

// GetByEmail returns a copy of the account with the given email.
func (r *AccountRepository) GetByEmail(_ context.Context, email string, opts repository.FindOptions) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.AccountNotFound()
	}
	return r.lookup(id, opts)
}

func (r *AccountRepository) lookup(id string, opts repository.FindOptions) (*domain.Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.AccountNotFound()
	}
	if !opts.IncludeCredentialHash {
		a.PasswordHash = ""
	}
	return &a, nil
}

// ListByIDs returns the accounts that exist among ids, in ids order.
func (r *AccountRepository) ListByIDs(_ context.Context, ids []string) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.byID[id]; ok {
			a.PasswordHash = ""
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

type pairKey struct {
	userID  string
	movieID string
}

// ReviewRepository implements repository.ReviewRepository in memory.
type ReviewRepository struct {
	mu     sync.RWMutex
	byID   map[string]domain.Review
	byPair map[pairKey]string
}

// NewReviewRepository creates an empty in-memory review repository.
func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{
		byID:   make(map[string]domain.Review),
		byPair: make(map[pairKey]string),
	}
}

// Create stores a copy of rv unless the (user, movie) pair is taken.
func (r *ReviewRepository) Create(_ context.Context, rv *domain.Review) error {
	key := pairKey{userID: rv.UserID, movieID: rv.MovieID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byPair[key]; taken {
		return domain.DuplicateReview(rv.MovieID)
	}
	r.byID[rv.ID] = cloneReview(*rv)
	r.byPair[key] = rv.ID
	return nil
}

// GetByID returns a copy of the review with the given id.
func (r *ReviewRepository) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rv, ok := r.byID[id]
	if !ok {
		return nil, domain.ReviewNotFound(id)
	}
	rv = cloneReview(rv)
	return &rv, nil
}

// ListByUserID returns the user's reviews, newest first.
func (r *ReviewRepository) ListByUserID(_ context.Context, userID string) ([]domain.Review, error) {
	return r.filter(func(rv domain.Review) bool { return rv.UserID == userID }), nil
}

// ListByMovieID returns the movie's reviews, newest first.
func (r *ReviewRepository) ListByMovieID(_ context.Context, movieID string) ([]domain.Review, error) {
	return r.filter(func(rv domain.Review) bool { return rv.MovieID == movieID }), nil
}

func (r *ReviewRepository) filter(match func(domain.Review) bool) []domain.Review {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reviews := []domain.Review{}
	for _, rv := range r.byID {
		if match(rv) {
			reviews = append(reviews, cloneReview(rv))
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].ID < reviews[j].ID
		}
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews
}

// DeleteOwned removes the review if userID owns it.
func (r *ReviewRepository) DeleteOwned(_ context.Context, id, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rv, ok := r.byID[id]
	if !ok || rv.UserID != userID {
		return false, nil
	}
	delete(r.byID, id)
	delete(r.byPair, pairKey{userID: rv.UserID, movieID: rv.MovieID})
	return true, nil
}

func cloneReview(rv domain.Review) domain.Review {
	if rv.ReviewText != nil {
		text := *rv.ReviewText
		rv.ReviewText = &text
	}
	return rv
}
