package dto

import (
	"time"

	"guidex.app/curator/internal/model"
)

type PayloadRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Body        string   `json:"body" binding:"required"`
	Version     string   `json:"version" binding:"required"`
	Difficulty  string   `json:"difficulty" binding:"required"`
	Tags        []string `json:"tags" binding:"required"`
}

func (r PayloadRequest) ToModel() model.Payload {
	return model.Payload{
		Title:       r.Title,
		Description: r.Description,
		Body:        r.Body,
		Version:     r.Version,
		Difficulty:  model.Difficulty(r.Difficulty),
		Tags:        r.Tags,
	}
}

type SubmitContributionRequest struct {
	Topic    string         `json:"topic" binding:"required"`
	Category string         `json:"category" binding:"required"`
	Slug     string         `json:"slug"` // optional, derived from the title when omitted
	Payload  PayloadRequest `json:"payload" binding:"required"`
}

type ReviseContributionRequest struct {
	Payload PayloadRequest `json:"payload" binding:"required"`
}

type ModerateContributionRequest struct {
	Action   string  `json:"action" binding:"required"`
	Feedback *string `json:"feedback,omitempty"`
}

type ReviewCheckResponse struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

type AutomatedReviewResponse struct {
	Decision   string                `json:"decision"`
	Score      int                   `json:"score"`
	Checks     []ReviewCheckResponse `json:"checks,omitempty"`
	Strengths  []string              `json:"strengths,omitempty"`
	Issues     []string              `json:"issues,omitempty"`
	Feedback   string                `json:"feedback"`
	ReviewedAt time.Time             `json:"reviewed_at"`
}

type ModeratorDecisionResponse struct {
	Action    string    `json:"action"`
	Feedback  *string   `json:"feedback,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

type ContributionResponse struct {
	ID                int64                      `json:"id"`
	OwnerID           int64                      `json:"owner_id"`
	Topic             string                     `json:"topic"`
	Category          string                     `json:"category"`
	Slug              string                     `json:"slug"`
	Status            string                     `json:"status"`
	AutomatedReview   *AutomatedReviewResponse   `json:"automated_review,omitempty"`
	ModeratorDecision *ModeratorDecisionResponse `json:"moderator_decision,omitempty"`
	PublishedLocation *string                    `json:"published_location,omitempty"`
	Payload           *PayloadResponse           `json:"payload,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

type PayloadResponse struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	Version     string   `json:"version"`
	Difficulty  string   `json:"difficulty"`
	Tags        []string `json:"tags,omitempty"`
}

type SubmitContributionResponse struct {
	Contribution ContributionResponse `json:"contribution"`
	ReviewQueued bool                 `json:"review_queued"`
}

func ToContributionResponse(c *model.Contribution) ContributionResponse {
	resp := ContributionResponse{
		ID:                c.ID,
		OwnerID:           c.OwnerID,
		Topic:             c.Classification.Topic,
		Category:          c.Classification.Category,
		Slug:              c.Classification.Slug,
		Status:            string(c.Status),
		PublishedLocation: c.PublishedLocation,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}

	if c.AutomatedReview != nil {
		r := c.AutomatedReview
		checks := make([]ReviewCheckResponse, 0, len(r.Checks))
		for _, ck := range r.Checks {
			checks = append(checks, ReviewCheckResponse(ck))
		}
		resp.AutomatedReview = &AutomatedReviewResponse{
			Decision:   string(r.Decision),
			Score:      r.Score,
			Checks:     checks,
			Strengths:  r.Strengths,
			Issues:     r.Issues,
			Feedback:   r.Feedback,
			ReviewedAt: r.ReviewedAt,
		}
	}

	if c.ModeratorDecision != nil {
		d := c.ModeratorDecision
		resp.ModeratorDecision = &ModeratorDecisionResponse{
			Action:    string(d.Action),
			Feedback:  d.Feedback,
			DecidedAt: d.DecidedAt,
		}
	}

	return resp
}

func ToPayloadResponse(p *model.Payload) *PayloadResponse {
	if p == nil {
		return nil
	}
	return &PayloadResponse{
		Title:       p.Title,
		Description: p.Description,
		Body:        p.Body,
		Version:     p.Version,
		Difficulty:  string(p.Difficulty),
		Tags:        p.Tags,
	}
}

func ToContributionListResponse(items []model.Contribution) []ContributionResponse {
	out := make([]ContributionResponse, 0, len(items))
	for i := range items {
		out = append(out, ToContributionResponse(&items[i]))
	}
	return out
}
