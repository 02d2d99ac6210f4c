package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// emailCollation compares emails case-insensitively. The web
// application stored them as typed, so "Alice@x.com" and "alice@x.com"
// must be the same account. The unique index uses the same collation.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

// userDocument matches the collection shape of the web application.
// New documents use the service ULID as _id.
type userDocument struct {
	ID        any       `bson:"_id"`
	Email     string    `bson:"email"`
	Name      string    `bson:"name"`
	Password  string    `bson:"password"`
	CreatedAt time.Time `bson:"createdAt,omitempty"`
}

func (d userDocument) toDomain() domain.User {
	return domain.User{
		ID:           documentID(d.ID),
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
	}
}

func newUserDocument(u domain.User) userDocument {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return userDocument{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Password:  u.PasswordHash,
		CreatedAt: createdAt.Truncate(time.Millisecond),
	}
}

// documentID renders _id as a string whatever type the writer used.
func documentID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case bson.ObjectID:
		return v.Hex()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// idFilter matches either form of _id, so legacy ObjectID accounts can be
// found by the hex string the service hands out for them.
func idFilter(id string) bson.M {
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

type usersRepo struct {
	coll *mongo.Collection
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, idFilter(id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, options.FindOne().SetCollation(emailCollation))
}

func (r *usersRepo) findOne(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOneOptions]) (domain.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return doc.toDomain(), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.coll.InsertOne(ctx, newUserDocument(u))
	return mapDuplicate(err)
}

func (r *usersRepo) CountUsers(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}
