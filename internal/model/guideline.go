package model

import "time"

// Guideline is a permanent corpus entry produced by publishing an approved
// contribution. Rows are append-only; the unique index on the classification
// triple is what makes the publish-time duplicate check authoritative.
type Guideline struct {
	ID             int64          `json:"id"`
	ContributionID int64          `json:"contribution_id"`
	Classification Classification `json:"classification"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Body           string         `json:"body"`
	Version        string         `json:"version"`
	Difficulty     Difficulty     `json:"difficulty"`
	Tags           []string       `json:"tags,omitempty"`
	Location       string         `json:"location"`
	PublishedAt    time.Time      `json:"published_at"`
}
