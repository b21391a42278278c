// Package mongostore reads company submissions from MongoDB. Documents are
// parsed tolerantly: deal IDs may be stored as numbers or numeric strings,
// and companies with missing names or unparseable headcounts are skipped
// rather than failing the submission.
package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/logging"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// Config holds MongoDB connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Store is a MongoDB-backed submission source.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect establishes and verifies a MongoDB connection.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.NewConfigError("mongostore", "connection URI is required", nil)
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, errors.NewConfigError("mongostore", "database and collection are required", nil)
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, errors.NewStoreError("connect", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.NewStoreError("ping", err)
	}

	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return errors.NewStoreError("disconnect", err)
	}
	return nil
}

// Count returns the total number of documents in the collection.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errors.NewStoreError("count", err)
	}
	return n, nil
}

// FetchSubmissions returns submissions that reference a deal and carry a
// non-empty additional companies array, in natural order. limit <= 0 means
// no limit.
func (s *Store) FetchSubmissions(ctx context.Context, limit int64) ([]types.Submission, error) {
	filter := bson.M{
		"dealId":                   bson.M{"$exists": true, "$ne": nil},
		"data.additionalCompanies": bson.M{"$exists": true, "$ne": bson.A{}},
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.NewStoreError("find", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var submissions []types.Submission
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.NewStoreError("decode", err)
		}
		sub := parseSubmission(doc)
		if len(sub.AdditionalCompanies) == 0 && sub.PrimaryCompany == nil {
			logging.Debug().
				Str("submission_id", sub.ID).
				Msg("Skipping submission with no parseable companies")
			continue
		}
		submissions = append(submissions, sub)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.NewStoreError("iterate", err)
	}
	return submissions, nil
}
