package mongo

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/fitra/internal/auth/domain"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestDocumentID(t *testing.T) {
	oid := bson.NewObjectID()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "ulid string", in: "01HZX5D1W2C3B4A5Z6Y7X8W9V0", want: "01HZX5D1W2C3B4A5Z6Y7X8W9V0"},
		{name: "legacy object id", in: oid, want: oid.Hex()},
		{name: "missing", in: nil, want: ""},
		{name: "unexpected type", in: int32(7), want: "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, documentID(tt.in))
		})
	}
}

func TestLegacyDocumentDecodes(t *testing.T) {
	oid := bson.NewObjectID()
	raw, err := bson.Marshal(bson.M{
		"_id":      oid,
		"email":    "a@b.com",
		"password": "$2a$10$abcdefghijklmnopqrstuuJ1lG8Z0m8V8xJ0bqkq9Yl3gXq3m2sKa",
		"name":     "A B",
		"__v":      0,
	})
	require.NoError(t, err)

	var doc userDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))

	u := doc.toDomain()
	require.Equal(t, oid.Hex(), u.ID)
	require.Equal(t, "a@b.com", u.Email)
	require.Equal(t, "A B", u.Name)
	require.Contains(t, u.PasswordHash, "$2a$10$")
	require.True(t, u.CreatedAt.IsZero())
}

func TestNewUserDocument(t *testing.T) {
	u := domain.User{ID: "01HZX5D1W2C3B4A5Z6Y7X8W9V0", Email: "a@b.com", Name: "A B", PasswordHash: "$argon2id$x"}

	doc := newUserDocument(u)
	require.Equal(t, u.ID, doc.ID)
	require.Equal(t, u.PasswordHash, doc.Password)
	require.WithinDuration(t, time.Now(), doc.CreatedAt, time.Minute)
}

func TestIDFilter(t *testing.T) {
	oid := bson.NewObjectID()

	legacy := idFilter(oid.Hex())
	in, ok := legacy["_id"].(bson.M)["$in"].(bson.A)
	require.True(t, ok)
	require.Equal(t, bson.A{oid.Hex(), oid}, in)

	require.Equal(t, bson.M{"_id": "01HZX5D1W2C3B4A5Z6Y7X8W9V0"}, idFilter("01HZX5D1W2C3B4A5Z6Y7X8W9V0"))
}
