// Package resolver implements the query and mutation operations exposed on
// the /query endpoint. Every method reads the caller from identity.FromContext
// and enforces authentication and ownership before touching the stores.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/internal/identity"
	"github.com/utafrali/reelreviews/internal/repository"
	"github.com/utafrali/reelreviews/internal/service"
	apperrors "github.com/utafrali/reelreviews/pkg/errors"
	"github.com/utafrali/reelreviews/pkg/validator"
)

// Issuer mints credentials. *auth.JWTManager satisfies it.
type Issuer interface {
	Issue(id identity.Identity) (string, error)
}

// Catalog lists popular movies. *catalog.Client satisfies it.
type Catalog interface {
	ListPopular(ctx context.Context, page int) (*domain.MoviePage, error)
}

// Resolver composes the stores, the catalog and the credential issuer.
type Resolver struct {
	accounts *service.AccountService
	reviews  *service.ReviewService
	catalog  Catalog
	issuer   Issuer
}

// New creates a resolver.
func New(accounts *service.AccountService, reviews *service.ReviewService, catalog Catalog, issuer Issuer) *Resolver {
	return &Resolver{
		accounts: accounts,
		reviews:  reviews,
		catalog:  catalog,
		issuer:   issuer,
	}
}

// --- Arguments ---

// RegisterArgs are the variables of createUser.
type RegisterArgs struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Password string `json:"password" validate:"omitempty,max=72"`
}

// LoginArgs are the variables of login.
type LoginArgs struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateReviewArgs are the variables of createMovieReview.
type CreateReviewArgs struct {
	UserID     string  `json:"userId"`
	MovieID    string  `json:"movieId" validate:"omitempty,max=64"`
	Rating     *int    `json:"rating"`
	ReviewText *string `json:"reviewText" validate:"omitempty,max=5000"`
}

// DeleteReviewArgs are the variables of deleteMovieReview.
type DeleteReviewArgs struct {
	ReviewID string `json:"reviewId"`
}

// ReviewsForMovieArgs are the variables of getMovieReviewByMovieId.
type ReviewsForMovieArgs struct {
	MovieID string `json:"movieId"`
}

// PopularMoviesArgs are the variables of getGraphqlPopularMovies.
type PopularMoviesArgs struct {
	PageNumber *int `json:"pageNumber"`
}

// --- Results ---

// AuthPayload is an account's public fields plus a fresh credential.
type AuthPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// DeleteResult confirms a deletion.
type DeleteResult struct {
	Message string `json:"message"`
}

// --- Operations ---

// Register creates an account and returns it with a credential.
func (r *Resolver) Register(ctx context.Context, args RegisterArgs) (*AuthPayload, error) {
	args.Name = strings.TrimSpace(args.Name)
	args.Email = strings.TrimSpace(args.Email)
	if err := validator.Validate(args); err != nil {
		return nil, err
	}
	account, err := r.accounts.Register(ctx, service.RegisterInput{
		Name:     args.Name,
		Email:    args.Email,
		Password: args.Password,
	})
	if err != nil {
		return nil, err
	}
	return r.authPayload(account)
}

// Login authenticates by email and password and returns a credential.
func (r *Resolver) Login(ctx context.Context, args LoginArgs) (*AuthPayload, error) {
	account, err := r.accounts.Authenticate(ctx, args.Email, args.Password)
	if err != nil {
		return nil, err
	}
	return r.authPayload(account)
}

// CurrentUser returns the caller's account, freshly loaded, with a new
// credential.
func (r *Resolver) CurrentUser(ctx context.Context) (*AuthPayload, error) {
	caller, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	account, err := r.accounts.FindByID(ctx, caller.AccountID, repository.FindOptions{})
	if err != nil {
		return nil, err
	}
	return r.authPayload(account)
}

// CreateReview stores a review for the caller. userId must be the caller.
func (r *Resolver) CreateReview(ctx context.Context, args CreateReviewArgs) (*domain.Review, error) {
	caller, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if args.UserID == "" {
		return nil, domain.MissingField("userId")
	}
	if args.UserID != caller.AccountID {
		return nil, apperrors.Forbidden("you can only create reviews for yourself")
	}
	if err := validator.Validate(args); err != nil {
		return nil, err
	}

	return r.reviews.Create(ctx, service.CreateReviewInput{
		UserID:     caller.AccountID,
		MovieID:    args.MovieID,
		Rating:     args.Rating,
		ReviewText: args.ReviewText,
	})
}

// DeleteReview removes one of the caller's reviews.
func (r *Resolver) DeleteReview(ctx context.Context, args DeleteReviewArgs) (*DeleteResult, error) {
	caller, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.reviews.Delete(ctx, args.ReviewID, caller.AccountID); err != nil {
		return nil, err
	}
	return &DeleteResult{Message: "Review deleted successfully"}, nil
}

// MyReviews lists the caller's reviews, each with its author.
func (r *Resolver) MyReviews(ctx context.Context) ([]domain.ReviewWithAuthor, error) {
	caller, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := r.reviews.ListByAccount(ctx, caller.AccountID)
	if err != nil {
		return nil, err
	}
	return r.reviews.WithAuthors(ctx, reviews)
}

// ReviewsForMovie lists every review of a movie with its author. Anonymous
// callers are allowed.
func (r *Resolver) ReviewsForMovie(ctx context.Context, args ReviewsForMovieArgs) ([]domain.ReviewWithAuthor, error) {
	if args.MovieID == "" {
		return nil, domain.MissingField("movieId")
	}
	return r.reviews.ListByMovie(ctx, args.MovieID)
}

// PopularMovies proxies a page of the catalog's popular listing. Anonymous
// callers are allowed.
func (r *Resolver) PopularMovies(ctx context.Context, args PopularMoviesArgs) (*domain.MoviePage, error) {
	page := 1
	if args.PageNumber != nil {
		page = *args.PageNumber
	}
	return r.catalog.ListPopular(ctx, page)
}

func (r *Resolver) authPayload(a *domain.Account) (*AuthPayload, error) {
	token, err := r.issuer.Issue(identity.Identity{AccountID: a.ID, Name: a.Name, Email: a.Email})
	if err != nil {
		return nil, fmt.Errorf("issue credential: %w", err)
	}
	return &AuthPayload{ID: a.ID, Name: a.Name, Email: a.Email, Token: token}, nil
}

func requireIdentity(ctx context.Context) (identity.Identity, error) {
	caller := identity.FromContext(ctx)
	if !caller.Authenticated() {
		return identity.Identity{}, apperrors.Unauthenticated("authentication required")
	}
	return caller, nil
}
