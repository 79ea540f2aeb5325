package sessions

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBlacklist stores revoked tokens in a TTL collection; used when Redis is not configured.
type MongoBlacklist struct {
	col *mongo.Collection
}

type revokedToken struct {
	Digest    string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func NewMongoBlacklist(ctx context.Context, col *mongo.Collection) (*MongoBlacklist, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("create revoked token index: %w", err)
	}
	return &MongoBlacklist{col: col}, nil
}

func (b *MongoBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	rec := revokedToken{Digest: tokenDigest(token), ExpiresAt: time.Now().UTC().Add(ttl)}
	_, err := b.col.ReplaceOne(ctx, bson.M{"_id": rec.Digest}, rec, options.Replace().SetUpsert(true))
	return err
}

// IsRevoked filters on expiresAt too; the TTL monitor only sweeps about once a minute.
func (b *MongoBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := b.col.CountDocuments(ctx, bson.M{"_id": tokenDigest(token), "expiresAt": bson.M{"$gt": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
