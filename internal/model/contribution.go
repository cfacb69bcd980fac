package model

import "time"

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Classification places a guideline in the published corpus.
// The (topic, category, slug) triple is unique among published guidelines.
type Classification struct {
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Slug     string `json:"slug"`
}

// Payload is the submitted document. Immutable once written except via a
// revision, which replaces it wholesale.
type Payload struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Body        string     `json:"body"`
	Version     string     `json:"version"`
	Difficulty  Difficulty `json:"difficulty"`
	Tags        []string   `json:"tags"`
}

type ReviewCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// AutomatedReview is the structured verdict from the quality reviewer.
// Cleared whenever the owner revises, so stale feedback is never shown
// against new content.
type AutomatedReview struct {
	Decision   ReviewDecision `json:"decision"`
	Score      int            `json:"score"`
	Checks     []ReviewCheck  `json:"checks,omitempty"`
	Strengths  []string       `json:"strengths,omitempty"`
	Issues     []string       `json:"issues,omitempty"`
	Feedback   string         `json:"feedback"`
	Model      string         `json:"model,omitempty"`
	ReviewedAt time.Time      `json:"reviewed_at"`
}

type ModeratorAction string

const (
	ModeratorApprove        ModeratorAction = "approve"
	ModeratorReject         ModeratorAction = "reject"
	ModeratorRequestChanges ModeratorAction = "request_changes"
)

type ModeratorDecision struct {
	Action      ModeratorAction `json:"action"`
	ModeratorID int64           `json:"moderator_id"`
	Feedback    *string         `json:"feedback,omitempty"`
	DecidedAt   time.Time       `json:"decided_at"`
}

// Contribution is an externally submitted guideline plus its review and
// moderation state. The payload itself lives in the content store and is
// attached on read.
type Contribution struct {
	ID                int64              `json:"id"`
	OwnerID           int64              `json:"owner_id"`
	Classification    Classification    `json:"classification"`
	Status            Status             `json:"status"`
	AutomatedReview   *AutomatedReview   `json:"automated_review,omitempty"`
	ModeratorDecision *ModeratorDecision `json:"moderator_decision,omitempty"`
	PublishedLocation *string            `json:"published_location,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}
