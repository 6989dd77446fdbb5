package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civiclens/backend/internal/config"
	"civiclens/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoSnapshot struct {
	Collection string             `bson:"_id"`
	Version    int                `bson:"version"`
	Complaints []models.Complaint `bson:"complaints"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

// MongoStore keeps the snapshot as a single MongoDB document.
type MongoStore struct {
	coll *mongo.Collection
	name string
}

// NewMongoStore stores snapshots in the "snapshots" collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("snapshots"), name: config.SnapshotCollection}
}

// ConnectMongo opens a client and verifies the connection.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client.Database(database), nil
}

func (m *MongoStore) Load(ctx context.Context) ([]models.Complaint, error) {
	var doc mongoSnapshot
	err := m.coll.FindOne(ctx, bson.M{"_id": m.name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.Complaint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot from mongo: %w", err)
	}
	if doc.Version > config.SnapshotSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	if doc.Complaints == nil {
		doc.Complaints = []models.Complaint{}
	}
	return doc.Complaints, nil
}

func (m *MongoStore) Save(ctx context.Context, complaints []models.Complaint) error {
	if complaints == nil {
		complaints = []models.Complaint{}
	}
	doc := mongoSnapshot{
		Collection: m.name,
		Version:    config.SnapshotSchemaVersion,
		Complaints: complaints,
		UpdatedAt:  time.Now().UTC(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": m.name}, doc, opts); err != nil {
		return fmt.Errorf("save snapshot to mongo: %w", err)
	}
	return nil
}
