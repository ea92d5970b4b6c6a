package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/internal/repository"
	"github.com/utafrali/reelreviews/pkg/database"
)

// AccountRepository implements repository.AccountRepository using Redis.
type AccountRepository struct {
	client *goredis.Client
}

// NewAccountRepository creates a new Redis-backed account repository.
func NewAccountRepository(client *goredis.Client) *AccountRepository {
	return &AccountRepository{client: client}
}

// Create stores a new account. Claiming the email index key with SETNX
// decides concurrent registrations for the same email.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (err error) {
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "CreateAccount", "SETNX "+accountEmailPrefix+" / SET "+accountPrefix)
	defer func() { end(err) }()

	data, err := json.Marshal(newAccountRecord(a))
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	claimed, err := r.client.SetNX(ctx, accountEmailKey(a.Email), a.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("redis claim account email: %w", err)
	}
	if !claimed {
		return domain.DuplicateAccount(a.Email)
	}

	if err = r.client.Set(ctx, accountKey(a.ID), data, 0).Err(); err != nil {
		// Release the email so the caller can retry.
		_ = r.client.Del(context.WithoutCancel(ctx), accountEmailKey(a.Email)).Err()
		return fmt.Errorf("redis set account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string, opts repository.FindOptions) (_ *domain.Account, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "GetAccountByID", "GET "+accountPrefix)
	defer func() { end(err) }()

	return r.load(ctx, id, opts)
}

// GetByEmail resolves the email index and loads the account.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string, opts repository.FindOptions) (_ *domain.Account, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "GetAccountByEmail", "GET "+accountEmailPrefix)
	defer func() { end(err) }()

	id, err := r.client.Get(ctx, accountEmailKey(email)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.AccountNotFound()
		}
		return nil, fmt.Errorf("redis get account email: %w", err)
	}
	return r.load(ctx, id, opts)
}

func (r *AccountRepository) load(ctx context.Context, id string, opts repository.FindOptions) (*domain.Account, error) {
	data, err := r.client.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.AccountNotFound()
		}
		return nil, fmt.Errorf("redis get account: %w", err)
	}

	var rec accountRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	a := rec.toDomain()
	if !opts.IncludeCredentialHash {
		a.PasswordHash = ""
	}
	return &a, nil
}

// ListByIDs returns the accounts whose ids are in ids. Unknown ids are skipped.
func (r *AccountRepository) ListByIDs(ctx context.Context, ids []string) (_ []domain.Account, err error) {
	if len(ids) == 0 {
		return []domain.Account{}, nil
	}

	ctx, end := database.TraceOp(ctx, database.SystemRedis, "ListAccountsByIDs", "MGET "+accountPrefix)
	defer func() { end(err) }()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = accountKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget accounts: %w", err)
	}

	accounts := make([]domain.Account, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec accountRecord
		if err = json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal account: %w", err)
		}
		a := rec.toDomain()
		a.PasswordHash = ""
		accounts = append(accounts, a)
	}
	return accounts, nil
}
