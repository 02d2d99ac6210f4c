// Package mongo is the MongoDB store driver. It reads the users collection
// written by the Fitra web application, whose documents carry an
// ObjectID _id and a bcrypt "password" field.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/fitra/internal/auth/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	DefaultDatabase = "fitra"

	userCollection           = "users"
	revokedSessionCollection = "revoked_sessions"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// NewStore connects to uri and uses database name (DefaultDatabase when
// empty).
func NewStore(ctx context.Context, uri, name string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if name == "" {
		name = DefaultDatabase
	}
	return &Store{client: client, db: client.Database(name)}, nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ping verifies the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Users() store.Users {
	return &usersRepo{coll: s.db.Collection(userCollection)}
}

func (s *Store) RevokedSessions() store.RevokedSessions {
	return &revokedSessionsRepo{coll: s.db.Collection(revokedSessionCollection)}
}

// ApplyMigrations creates the collection indexes. The unique email index
// ignores case and is what rejects duplicate registrations; the TTL index
// lets MongoDB expire revocations on its own.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetCollation(emailCollation).
				SetName("users_email_key"),
		},
	}
	if _, err := s.db.Collection(userCollection).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	sessions := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("revoked_sessions_expires_at_ttl"),
		},
	}
	if _, err := s.db.Collection(revokedSessionCollection).Indexes().CreateMany(ctx, sessions); err != nil {
		return fmt.Errorf("create revoked session indexes: %w", err)
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func mapDuplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	return err
}
