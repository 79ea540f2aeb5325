package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adityakmrtiwari/CliNote/internal/patient"
)

// MongoRepo implements Repository on a Mongo collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "name", Value: 1}}},
	}
	if _, err := col.Indexes().CreateMany(ctx, idx); err != nil {
		return nil, fmt.Errorf("create patient indexes: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Create(ctx context.Context, p *patient.Patient) error {
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	if _, err := m.col.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, userID, id string) (*patient.Patient, error) {
	var p patient.Patient
	if err := m.col.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, patient.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepo) List(ctx context.Context, userID string) ([]*patient.Patient, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return m.find(ctx, bson.M{"userId": userID}, opts)
}

func (m *MongoRepo) GetMany(ctx context.Context, userID string, ids []string) ([]*patient.Patient, error) {
	if len(ids) == 0 {
		return []*patient.Patient{}, nil
	}
	return m.find(ctx, bson.M{"userId": userID, "_id": bson.M{"$in": ids}}, options.Find())
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*patient.Patient, error) {
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*patient.Patient{}
	for cur.Next(ctx) {
		var p patient.Patient
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return patient.ErrNotFound
	}
	return nil
}
