// Package store persists scan results to MongoDB (SPEC_FULL.md §7.1): an
// optional sink the Scan API writes confirmed credential matches to after
// each scan, adapted from the ResultService/CreateResultWithDedup pattern.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionScanResults is the Mongo collection latchkey writes confirmed
// matches to.
const CollectionScanResults = "scan_results"

// ScanResult is one stored credential discovery.
type ScanResult struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	RunID       string             `bson:"run_id"`
	ProfileName string             `bson:"profile_name"`
	Category    string             `bson:"category"`
	TargetURL   string             `bson:"target_url"`
	Username    string             `bson:"username"`
	Password    string             `bson:"password"`
	CreatedAt   time.Time          `bson:"created_at"`
}

// contextTimeout bounds every Mongo operation the store issues, the same
// way database.NewContext does for the teacher's service layer.
const contextTimeout = 10 * time.Second

// Store wraps a single Mongo collection handle.
type Store struct {
	collection *mongo.Collection
}

// Connect dials uri and returns a Store bound to database dbName's
// CollectionScanResults collection.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &Store{collection: client.Database(dbName).Collection(CollectionScanResults)}, nil
}

// New wraps an already-open collection handle directly, for callers (and
// tests) that manage their own *mongo.Client lifecycle.
func New(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

// Save inserts result, deduplicating on (run_id, profile_name, target_url,
// username) the way CreateResultWithDedup deduplicates on its own key
// fields rather than inserting unconditionally.
func (s *Store) Save(ctx context.Context, result *ScanResult) error {
	ctx, cancel := context.WithTimeout(ctx, contextTimeout)
	defer cancel()

	result.CreatedAt = time.Now()

	filter := bson.M{
		"run_id":       result.RunID,
		"profile_name": result.ProfileName,
		"target_url":   result.TargetURL,
		"username":     result.Username,
	}

	_, err := s.collection.UpdateOne(ctx, filter, bson.M{"$setOnInsert": result}, options.Update().SetUpsert(true))
	return err
}

// ListByRun returns every result recorded under runID.
func (s *Store) ListByRun(ctx context.Context, runID string) ([]ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, contextTimeout)
	defer cancel()

	cursor, err := s.collection.Find(ctx, bson.M{"run_id": runID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []ScanResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
