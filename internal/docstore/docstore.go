package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blugr/internal/align"
	"blugr/internal/config"
	"blugr/internal/services"
	"blugr/internal/summary"
	"blugr/internal/transcript"
)

// Item status values as persisted in the document store.
const (
	ItemStatusProcessing = "processing"
	ItemStatusCompleted  = "completed"
	ItemStatusFailed     = "failed"
)

// Item is the persisted record for one processed video.
type Item struct {
	ContentID     string                 `json:"content_id" bson:"content_id"`
	SourceURL     string                 `json:"source_url" bson:"source_url"`
	Status        string                 `json:"status" bson:"status"`
	Transcript    *transcript.Transcript `json:"transcript,omitempty" bson:"transcript,omitempty"`
	Summary       *summary.Summary       `json:"summary,omitempty" bson:"summary,omitempty"`
	SearchResults []align.HeadingMatches `json:"search_results,omitempty" bson:"search_results,omitempty"`
	MediaURLs     map[string]string      `json:"media_urls,omitempty" bson:"media_urls,omitempty"`
	ErrorMessage  string                 `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt     time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at" bson:"updated_at"`
}

// Completed reports whether the item finished the full pipeline.
func (i *Item) Completed() bool {
	return i != nil && i.Status == ItemStatusCompleted
}

// Store wraps the MongoDB collection holding processed content items.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect opens the document store and verifies the connection.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	clientOptions := options.Client().ApplyURI(cfg.DocStore.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "docstore", "connect", "connect to document store", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, services.Wrap(services.ErrTransient, "docstore", "connect", "ping document store", err)
	}
	collection := client.Database(cfg.DocStore.Database).Collection(cfg.DocStore.Collection)
	return &Store{client: client, collection: collection}, nil
}

// Close disconnects from the document store.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// Get fetches the item for a content id.
func (s *Store) Get(ctx context.Context, contentID string) (*Item, error) {
	var item Item
	err := s.collection.FindOne(ctx, bson.M{"content_id": contentID}).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return nil, services.Wrap(services.ErrNotFound, "docstore", "get",
			fmt.Sprintf("content %s not found", contentID), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "docstore", "get", "fetch content item", err)
	}
	return &item, nil
}

// Upsert writes the item keyed by content id, inserting or replacing fields
// as needed.
func (s *Store) Upsert(ctx context.Context, item *Item) error {
	if item == nil || item.ContentID == "" {
		return services.Wrap(services.ErrInvalidInput, "docstore", "upsert", "item missing content id", nil)
	}
	item.UpdatedAt = time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = item.UpdatedAt
	}

	filter := bson.M{"content_id": item.ContentID}
	update := bson.M{"$set": item}
	opts := options.Update().SetUpsert(true)

	if _, err := s.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return services.Wrap(services.ErrTransient, "docstore", "upsert", "write content item", err)
	}
	return nil
}

// EnsureItem inserts a fresh processing record for a content id unless one
// already exists. It returns the stored item and whether this call created
// it. The conditional insert is atomic on the server, so two instances
// racing on the same id agree on a single creator.
func (s *Store) EnsureItem(ctx context.Context, contentID, sourceURL string) (*Item, bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"content_id": contentID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"content_id": contentID,
			"source_url": sourceURL,
			"status":     ItemStatusProcessing,
			"created_at": now,
			"updated_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	res, err := s.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return nil, false, services.Wrap(services.ErrTransient, "docstore", "ensure", "conditional insert", err)
	}

	item, err := s.Get(ctx, contentID)
	if err != nil {
		return nil, false, err
	}
	return item, res.UpsertedCount > 0, nil
}

// SetStatus updates only the item's status and error message.
func (s *Store) SetStatus(ctx context.Context, contentID, status, errorMessage string) error {
	filter := bson.M{"content_id": contentID}
	update := bson.M{"$set": bson.M{
		"status":        status,
		"error_message": errorMessage,
		"updated_at":    time.Now().UTC(),
	}}
	res, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return services.Wrap(services.ErrTransient, "docstore", "status", "update content status", err)
	}
	if res.MatchedCount == 0 {
		return services.Wrap(services.ErrNotFound, "docstore", "status",
			fmt.Sprintf("content %s not found", contentID), nil)
	}
	return nil
}
