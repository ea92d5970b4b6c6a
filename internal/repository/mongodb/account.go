package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/reelreviews/internal/domain"
	"github.com/utafrali/reelreviews/internal/repository"
	"github.com/utafrali/reelreviews/pkg/database"
)

// withoutHash hides the credential hash from reads that do not ask for it.
var withoutHash = bson.D{{Key: "password_hash", Value: 0}}

// AccountRepository implements repository.AccountRepository using MongoDB.
type AccountRepository struct {
	coll *mongo.Collection
}

// NewAccountRepository creates a new MongoDB-backed account repository.
func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(AccountsCollection)}
}

// Create inserts a new account. The unique email index rejects duplicates.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (err error) {
	ctx, end := database.TraceOp(ctx, database.SystemMongo, "CreateAccount", AccountsCollection+".insertOne")
	defer func() { end(err) }()

	if _, err = r.coll.InsertOne(ctx, newAccountDocument(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.DuplicateAccount(a.Email)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string, opts repository.FindOptions) (*domain.Account, error) {
	return r.findOne(ctx, "GetAccountByID", bson.D{{Key: "_id", Value: id}}, opts)
}

// GetByEmail retrieves an account by its email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string, opts repository.FindOptions) (*domain.Account, error) {
	return r.findOne(ctx, "GetAccountByEmail", bson.D{{Key: "email", Value: email}}, opts)
}

func (r *AccountRepository) findOne(ctx context.Context, op string, filter bson.D, opts repository.FindOptions) (_ *domain.Account, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemMongo, op, AccountsCollection+".findOne")
	defer func() { end(err) }()

	findOpts := options.FindOne()
	if !opts.IncludeCredentialHash {
		findOpts.SetProjection(withoutHash)
	}

	var doc accountDocument
	if err = r.coll.FindOne(ctx, filter, findOpts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.AccountNotFound()
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	a := doc.toDomain()
	if !opts.IncludeCredentialHash {
		a.PasswordHash = ""
	}
	return &a, nil
}

// ListByIDs returns the accounts whose ids are in ids.
func (r *AccountRepository) ListByIDs(ctx context.Context, ids []string) (_ []domain.Account, err error) {
	if len(ids) == 0 {
		return []domain.Account{}, nil
	}

	ctx, end := database.TraceOp(ctx, database.SystemMongo, "ListAccountsByIDs", AccountsCollection+".find")
	defer func() { end(err) }()

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetProjection(withoutHash))
	if err != nil {
		return nil, fmt.Errorf("find accounts: %w", err)
	}

	var docs []accountDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	accounts := make([]domain.Account, 0, len(docs))
	for _, d := range docs {
		a := d.toDomain()
		a.PasswordHash = ""
		accounts = append(accounts, a)
	}
	return accounts, nil
}
