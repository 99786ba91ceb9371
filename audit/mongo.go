package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig configures the MongoDB-backed audit store, trimmed from
// repository.MongoConfig to what a fixed-schema append log needs.
type MongoConfig struct {
	URI         string
	Database    string
	Collection  string
	MaxPoolSize int
}

func (c MongoConfig) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("audit: URI cannot be empty")
	}
	if c.Database == "" {
		return fmt.Errorf("audit: database cannot be empty")
	}
	if c.Collection == "" {
		return fmt.Errorf("audit: collection cannot be empty")
	}
	return nil
}

// DefaultMongoConfig mirrors repository.DefaultMongoConfig's pool sizing.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		Database:    "dxkernel",
		Collection:  "audit_log",
		MaxPoolSize: 50,
	}
}

// MongoStore is an append-only audit log backed by MongoDB.
type MongoStore struct {
	cfg        MongoConfig
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoRecord struct {
	Timestamp time.Time `bson:"ts"`
	Kind      string    `bson:"kind"`
	Victim    int32     `bson:"victim"`
	RequestID string    `bson:"request_id"`
	Status    string    `bson:"status"`
	Reason    string    `bson:"reason"`
}

// NewMongoStore connects and returns a ready store.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(uint64(cfg.MaxPoolSize))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("audit: connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("audit: pinging MongoDB: %w", err)
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	if _, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ts", Value: -1}},
	}); err != nil {
		return nil, fmt.Errorf("audit: creating ts index: %w", err)
	}

	return &MongoStore{cfg: cfg, client: client, collection: collection}, nil
}

// Append inserts r as a new document.
func (s *MongoStore) Append(ctx context.Context, r Record) error {
	doc := mongoRecord{
		Timestamp: r.Timestamp,
		Kind:      string(r.Kind),
		Victim:    r.Victim,
		RequestID: r.RequestID,
		Status:    r.Status,
		Reason:    r.Reason,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("audit: inserting record: %w", err)
	}
	return nil
}

// Recent returns the most recently appended records, newest first.
func (s *MongoStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "ts", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("audit: querying records: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Record
	for cursor.Next(ctx) {
		var doc mongoRecord
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("audit: decoding record: %w", err)
		}
		out = append(out, Record{
			Timestamp: doc.Timestamp,
			Kind:      Kind(doc.Kind),
			Victim:    doc.Victim,
			RequestID: doc.RequestID,
			Status:    doc.Status,
			Reason:    doc.Reason,
		})
	}
	return out, cursor.Err()
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
