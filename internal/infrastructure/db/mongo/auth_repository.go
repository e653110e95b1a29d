package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

const credentialsCollection = "auth_users"

// CredentialRepository stores identity-provider accounts.
type CredentialRepository struct {
	coll *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{coll: db.Collection(credentialsCollection)}
}

type mongoCredential struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
	CreatedAt    int64  `bson:"created_at"`
}

func (r *CredentialRepository) Create(ctx context.Context, c ports.Credential) error {
	doc := mongoCredential{
		ID:           c.ID,
		Email:        strings.ToLower(c.Email),
		PasswordHash: c.PasswordHash,
		CreatedAt:    time.Now().Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*ports.Credential, error) {
	var mc mongoCredential
	if err := r.coll.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}

	return &ports.Credential{ID: mc.ID, Email: mc.Email, PasswordHash: mc.PasswordHash}, nil
}
