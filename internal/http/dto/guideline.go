package dto

import (
	"time"

	"guidex.app/curator/internal/model"
)

type GuidelineResponse struct {
	ID          int64     `json:"id"`
	Topic       string    `json:"topic"`
	Category    string    `json:"category"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Body        string    `json:"body"`
	Version     string    `json:"version"`
	Difficulty  string    `json:"difficulty"`
	Tags        []string  `json:"tags,omitempty"`
	Location    string    `json:"location"`
	PublishedAt time.Time `json:"published_at"`
}

func ToGuidelineResponse(g *model.Guideline) GuidelineResponse {
	return GuidelineResponse{
		ID:          g.ID,
		Topic:       g.Classification.Topic,
		Category:    g.Classification.Category,
		Slug:        g.Classification.Slug,
		Title:       g.Title,
		Description: g.Description,
		Body:        g.Body,
		Version:     g.Version,
		Difficulty:  string(g.Difficulty),
		Tags:        g.Tags,
		Location:    g.Location,
		PublishedAt: g.PublishedAt,
	}
}

func ToGuidelineListResponse(items []model.Guideline) []GuidelineResponse {
	out := make([]GuidelineResponse, 0, len(items))
	for i := range items {
		out = append(out, ToGuidelineResponse(&items[i]))
	}
	return out
}
