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

	"github.com/adityakmrtiwari/CliNote/internal/note"
)

// MongoRepo stores notes in a Mongo collection. Ids are ObjectID hex strings
// kept in _id. A unique index on (userId, patientId) enforces one note per
// patient; concurrent upserts that lose the race surface as note.ErrConflict.
type MongoRepo struct {
	col *mongo.Collection
}

// NewMongoRepo ensures the note indexes and returns the repository.
func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "patientId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("user_patient_unique")},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
		return nil, fmt.Errorf("create note indexes: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Create(ctx context.Context, n *note.Note) error {
	if n.ID == "" {
		n.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	n.LastUpdated = now
	if _, err := m.col.InsertOne(ctx, n); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return note.ErrConflict
		}
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (m *MongoRepo) UpsertGenerated(ctx context.Context, g note.Generated) (*note.Note, error) {
	now := time.Now().UTC()
	set := bson.M{
		"templateType":    g.TemplateType,
		"transcript":      g.Transcript,
		"aiGeneratedNote": g.Note,
		"status":          note.StatusCompleted,
		"lastUpdated":     now,
		"updatedAt":       now,
	}
	if g.AudioURL != "" {
		set["audioUrl"] = g.AudioURL
	}
	filter := bson.M{"userId": g.UserID, "patientId": g.PatientID}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID().Hex(), "createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out note.Note
	if err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, note.ErrConflict
		}
		return nil, fmt.Errorf("upsert note: %w", err)
	}
	return &out, nil
}

func (m *MongoRepo) Get(ctx context.Context, userID, id string) (*note.Note, error) {
	var n note.Note
	if err := m.col.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, note.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (m *MongoRepo) ListByUser(ctx context.Context, userID string) ([]*note.Note, error) {
	return m.find(ctx, bson.M{"userId": userID}, bson.D{{Key: "updatedAt", Value: -1}})
}

func (m *MongoRepo) ListByPatient(ctx context.Context, userID, patientID string) ([]*note.Note, error) {
	return m.find(ctx, bson.M{"userId": userID, "patientId": patientID}, bson.D{{Key: "createdAt", Value: -1}})
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M, sort bson.D) ([]*note.Note, error) {
	cur, err := m.col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*note.Note{}
	for cur.Next(ctx) {
		var n note.Note
		if err := cur.Decode(&n); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, cur.Err()
}

// Update applies p in a single FindOneAndUpdate. A status change is guarded
// in the filter so the transition check and the write cannot interleave.
func (m *MongoRepo) Update(ctx context.Context, userID, id string, p note.Patch) (*note.Note, error) {
	now := time.Now().UTC()
	set := bson.M{"updatedAt": now, "lastUpdated": now}
	if p.Transcript != nil {
		set["transcript"] = *p.Transcript
	}
	if p.AIGeneratedNote != nil {
		set["aiGeneratedNote"] = *p.AIGeneratedNote
	}
	if p.TemplateType != nil {
		set["templateType"] = *p.TemplateType
	}
	if p.AudioURL != nil {
		set["audioUrl"] = *p.AudioURL
	}
	filter := bson.M{"_id": id, "userId": userID}
	if p.Status != nil {
		set["status"] = *p.Status
		filter["status"] = bson.M{"$in": note.PredecessorsOf(*p.Status)}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out note.Note
	err := m.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&out)
	if err == nil {
		return &out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if p.Status != nil {
		cnt, cerr := m.col.CountDocuments(ctx, bson.M{"_id": id, "userId": userID})
		if cerr == nil && cnt > 0 {
			return nil, note.ErrInvalidTransition
		}
	}
	return nil, note.ErrNotFound
}

func (m *MongoRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return note.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) DeleteByPatient(ctx context.Context, userID, patientID string) (int64, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{"userId": userID, "patientId": patientID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
