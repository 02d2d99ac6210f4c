package mongo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type revokedSessionsRepo struct {
	coll *mongo.Collection
}

func (r *revokedSessionsRepo) RevokeSession(ctx context.Context, s domain.RevokedSession) error {
	revokedAt := s.RevokedAt
	if revokedAt.IsZero() {
		revokedAt = time.Now().UTC()
	}

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": s.JTI},
		bson.M{"$setOnInsert": bson.M{
			"expires_at": s.ExpiresAt.UTC(),
			"revoked_at": revokedAt.UTC(),
		}},
		options.UpdateOne().SetUpsert(true),
	)
	// Two concurrent upserts of the same jti race on _id; either winning
	// means the token is revoked.
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (r *revokedSessionsRepo) IsSessionRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": jti}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *revokedSessionsRepo) DeleteExpiredRevocations(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
