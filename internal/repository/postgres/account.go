package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/internal/repository"
	"github.com/utafrali/reelreviews/pkg/database"
)

const (
	insertAccountSQL = `
		INSERT INTO accounts (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	accountColumns         = `id, name, email, created_at`
	accountColumnsWithHash = `id, name, email, created_at, password_hash`
)

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db database.DBTX
}

// NewAccountRepository creates a new PostgreSQL-backed account repository.
func NewAccountRepository(db database.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account into the database.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateAccount", insertAccountSQL)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, insertAccountSQL, a.ID, a.Name, a.Email, a.PasswordHash, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.DuplicateAccount(a.Email)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string, opts repository.FindOptions) (*domain.Account, error) {
	return r.getOne(ctx, "GetAccountByID", "id", id, opts)
}

// GetByEmail retrieves an account by its email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string, opts repository.FindOptions) (*domain.Account, error) {
	return r.getOne(ctx, "GetAccountByEmail", "email", email, opts)
}

func (r *AccountRepository) getOne(ctx context.Context, op, column, value string, opts repository.FindOptions) (_ *domain.Account, err error) {
	columns := accountColumns
	if opts.IncludeCredentialHash {
		columns = accountColumnsWithHash
	}
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s = $1`, columns, column)

	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var a domain.Account
	dest := []any{&a.ID, &a.Name, &a.Email, &a.CreatedAt}
	if opts.IncludeCredentialHash {
		dest = append(dest, &a.PasswordHash)
	}

	err = r.db.QueryRow(ctx, query, value).Scan(dest...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, domain.AccountNotFound()
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

// ListByIDs returns the accounts whose ids are in ids.
func (r *AccountRepository) ListByIDs(ctx context.Context, ids []string) (_ []domain.Account, err error) {
	if len(ids) == 0 {
		return []domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1)`
	ctx, end := database.TraceQuery(ctx, "ListAccountsByIDs", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, len(ids))
	for rows.Next() {
		var a domain.Account
		if err = rows.Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return accounts, nil
}
