package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcript"
)

// Mongo stores records as documents keyed by a unique video_id index.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenMongo connects, pings and ensures the unique video_id index.
func OpenMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	if uri == "" {
		return nil, errors.New("MONGO_URL is required")
	}
	if database == "" {
		database = "go_transcript"
	}
	if collection == "" {
		collection = "transcripts"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "video_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: create index: %w", err)
	}

	slog.Info("store: mongo connected", slog.String("database", database), slog.String("collection", collection))
	return &Mongo{client: client, collection: coll}, nil
}

func (m *Mongo) FindByVideoID(ctx context.Context, videoID string) (*transcript.Record, error) {
	var rec transcript.Record
	err := m.collection.FindOne(ctx, bson.M{"video_id": videoID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find %s: %w", videoID, err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

func (m *Mongo) Create(ctx context.Context, rec *transcript.Record) (*transcript.Record, error) {
	out := *rec
	// BSON dates carry millisecond precision.
	out.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := m.collection.InsertOne(ctx, &out); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("mongo: insert %s: %w", rec.VideoID, err)
	}
	return &out, nil
}

// containsCI matches s anywhere in the field, case-insensitively and literally.
func containsCI(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func mongoFilter(f Filter) bson.M {
	var and []bson.M
	if f.Query != "" {
		re := containsCI(f.Query)
		and = append(and, bson.M{"$or": []bson.M{
			{"title": re},
			{"video_id": re},
			{"full_text": re},
		}})
	}
	if f.VideoID != "" {
		and = append(and, bson.M{"video_id": containsCI(f.VideoID)})
	}
	if f.Title != "" {
		and = append(and, bson.M{"title": containsCI(f.Title)})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

func (m *Mongo) FindMany(ctx context.Context, f Filter, s Sort, p Page) ([]transcript.Record, int, error) {
	p = clampPage(p)
	filter := mongoFilter(f)

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo: count: %w", err)
	}

	opts := options.Find().SetSkip(int64(p.Offset)).SetLimit(int64(p.Limit))
	switch s {
	case SortOldest:
		opts.SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "video_id", Value: 1}})
	case SortTitle:
		opts.SetSort(bson.D{{Key: "title", Value: 1}, {Key: "video_id", Value: 1}})
		opts.SetCollation(&options.Collation{Locale: "en", Strength: 2})
	default:
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "video_id", Value: 1}})
	}

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo: query: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]transcript.Record, 0, p.Limit)
	for cursor.Next(ctx) {
		var rec transcript.Record
		if err := cursor.Decode(&rec); err != nil {
			return nil, 0, fmt.Errorf("mongo: decode: %w", err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("mongo: cursor: %w", err)
	}
	return out, int(total), nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
