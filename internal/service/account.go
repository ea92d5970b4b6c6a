package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/internal/repository"
	apperrors "github.com/utafrali/reelreviews/pkg/errors"
)

// DefaultBcryptCost is the cost factor for password hashing.
const DefaultBcryptCost = 12

// RegisterInput holds the parameters for registering a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AccountService implements account registration and authentication.
type AccountService struct {
	repo       repository.AccountRepository
	events     EventPublisher
	bcryptCost int
	logger     *slog.Logger
}

// NewAccountService creates a new account service. A non-positive cost
// selects DefaultBcryptCost.
func NewAccountService(repo repository.AccountRepository, events EventPublisher, bcryptCost int, logger *slog.Logger) *AccountService {
	if bcryptCost <= 0 {
		bcryptCost = DefaultBcryptCost
	}
	return &AccountService{
		repo:       repo,
		events:     events,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates an account with a hashed password. A taken email is
// rejected by the store, not by a prior lookup.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	switch {
	case name == "":
		return nil, domain.MissingField("name")
	case email == "":
		return nil, domain.MissingField("email")
	case input.Password == "":
		return nil, domain.MissingField("password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.InvalidInput("password must be at most 72 bytes")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	account.PasswordHash = ""

	if err := s.events.PublishAccountRegistered(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)
	return account, nil
}

// FindByEmail returns the account with the given email, without its hash.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if email == "" {
		return nil, domain.MissingField("email")
	}
	return s.repo.GetByEmail(ctx, email, repository.FindOptions{})
}

// FindByID returns the account with the given id.
func (s *AccountService) FindByID(ctx context.Context, id string, opts repository.FindOptions) (*domain.Account, error) {
	if id == "" {
		return nil, domain.MissingField("id")
	}
	return s.repo.GetByID(ctx, id, opts)
}

// Authenticate checks a password against the stored hash. The returned
// account never carries the hash.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.MissingField("email")
	}
	if password == "" {
		return nil, domain.MissingField("password")
	}

	account, err := s.repo.GetByEmail(ctx, email, repository.FindOptions{IncludeCredentialHash: true})
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.logger.InfoContext(ctx, "authentication failed",
			slog.String("account_id", account.ID),
		)
		return nil, domain.InvalidCredentials()
	}
	account.PasswordHash = ""

	s.logger.InfoContext(ctx, "account authenticated",
		slog.String("account_id", account.ID),
	)
	return account, nil
}
