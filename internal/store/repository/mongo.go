package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a MongoDB collection shared by all
// databases; records are keyed by the (db, id) pair.
type MongoRepo struct {
	col *mongo.Collection
}

// NewMongoRepo ensures the unique (db, id) index the compare-and-swap relies on.
func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "db", Value: 1}, {Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Get(ctx context.Context, db, id string) (*Record, error) {
	var r Record
	err := m.col.FindOne(ctx, bson.M{"db": db, "id": id}).Decode(&r)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (m *MongoRepo) Put(ctx context.Context, rec *Record, prevRev string) error {
	if prevRev == "" {
		_, err := m.col.InsertOne(ctx, rec)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
		// something is stored already; only a tombstone may be replaced
		return m.replace(ctx, rec, bson.M{"db": rec.DB, "id": rec.ID, "deleted": true})
	}
	return m.replace(ctx, rec, bson.M{"db": rec.DB, "id": rec.ID, "rev": prevRev})
}

func (m *MongoRepo) replace(ctx context.Context, rec *Record, filter bson.M) error {
	res, err := m.col.ReplaceOne(ctx, filter, rec)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}
