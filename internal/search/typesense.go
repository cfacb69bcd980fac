package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"

	"guidex.app/curator/internal/model"
)

type Config struct {
	URL        string
	APIKey     string
	Collection string
}

type typesenseIndexer struct {
	client     *typesense.Client
	collection string
}

// NewTypesense builds the Typesense-backed indexer and ensures the guidelines
// collection exists.
func NewTypesense(ctx context.Context, cfg Config) (Indexer, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	collection := cfg.Collection
	if collection == "" {
		collection = "guidelines"
	}

	idx := &typesenseIndexer{client: client, collection: collection}
	if err := idx.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (t *typesenseIndexer) ensureCollection(ctx context.Context) error {
	schema := &api.CollectionSchema{
		Name: t.collection,
		Fields: []api.Field{
			{Name: "title", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "body", Type: "string"},
			{Name: "topic", Type: "string", Facet: pointer.True()},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "slug", Type: "string"},
			{Name: "difficulty", Type: "string", Facet: pointer.True()},
			{Name: "tags", Type: "string[]", Facet: pointer.True()},
			{Name: "location", Type: "string"},
			{Name: "published_at", Type: "int64", Sort: pointer.True()},
		},
		DefaultSortingField: pointer.String("published_at"),
	}

	_, err := t.client.Collections().Create(ctx, schema)
	if err != nil {
		// Already-exists is the normal case after first boot.
		var httpErr *typesense.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusConflict {
			return nil
		}
		return fmt.Errorf("creating guidelines collection: %w", err)
	}
	return nil
}

type document struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	Topic       string   `json:"topic"`
	Category    string   `json:"category"`
	Slug        string   `json:"slug"`
	Difficulty  string   `json:"difficulty"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location"`
	PublishedAt int64    `json:"published_at"`
}

func (t *typesenseIndexer) IndexGuideline(ctx context.Context, g *model.Guideline) error {
	tags := g.Tags
	if tags == nil {
		tags = []string{}
	}

	doc := document{
		ID:          strconv.FormatInt(g.ID, 10),
		Title:       g.Title,
		Description: g.Description,
		Body:        g.Body,
		Topic:       g.Classification.Topic,
		Category:    g.Classification.Category,
		Slug:        g.Classification.Slug,
		Difficulty:  string(g.Difficulty),
		Tags:        tags,
		Location:    g.Location,
		PublishedAt: g.PublishedAt.Unix(),
	}

	_, err := t.client.Collection(t.collection).Documents().Upsert(ctx, doc, &api.DocumentIndexParameters{})
	if err != nil {
		return fmt.Errorf("upserting guideline document: %w", err)
	}

	slog.DebugContext(ctx, "guideline indexed", "guideline_id", g.ID, "location", g.Location)
	return nil
}
