// Package reviewer implements the automated quality review of submitted
// guidelines. The reviewer is a slow, unreliable collaborator: it runs on the
// worker, never on the submit path, and its verdict is applied through the
// engine's idempotent result handler.
package reviewer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"guidex.app/curator/common/llm"
	"guidex.app/curator/internal/model"
)

type Reviewer interface {
	Review(ctx context.Context, c *model.Contribution, p model.Payload) (*model.AutomatedReview, error)
}

// verdict is the schema the model is constrained to.
type verdict struct {
	Decision  string   `json:"decision" jsonschema:"enum=approve,enum=needs_changes,enum=reject" jsonschema_description:"Overall verdict for the submission"`
	Score     int      `json:"score" jsonschema_description:"Overall quality score from 0 to 100"`
	Checks    []check  `json:"checks" jsonschema_description:"Individual quality checks performed"`
	Strengths []string `json:"strengths" jsonschema_description:"What the submission does well"`
	Issues    []string `json:"issues" jsonschema_description:"Concrete problems that should be fixed"`
	Feedback  string   `json:"feedback" jsonschema_description:"Narrative feedback addressed to the author"`
}

type check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

var verdictSchema = llm.GenerateSchema[verdict]()

const systemPrompt = `You are the quality reviewer for a developer guidelines encyclopedia.
Assess the submitted guideline for technical accuracy, clarity, completeness and actionability.
Run these checks: accuracy, clarity, completeness, actionability, scope-fit (does the content match its topic/category?).
Decide:
- "approve" when the guideline is accurate and publishable as-is or with trivial edits.
- "needs_changes" when the content is salvageable but has concrete fixable problems.
- "reject" when the content is off-topic, misleading, spam, or fundamentally wrong.
Be specific in issues; the author sees your feedback verbatim.`

type llmReviewer struct {
	client    llm.Client
	maxTokens int
}

func New(client llm.Client, maxTokens int) Reviewer {
	return &llmReviewer{client: client, maxTokens: maxTokens}
}

func (r *llmReviewer) Review(ctx context.Context, c *model.Contribution, p model.Payload) (*model.AutomatedReview, error) {
	prompt := buildPrompt(c.Classification, p)

	var v verdict
	resp, err := r.client.Chat(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		SchemaName:   "guideline_review",
		Schema:       verdictSchema,
		MaxTokens:    r.maxTokens,
		Temperature:  llm.Temp(0),
	}, &v)
	if err != nil {
		return nil, fmt.Errorf("reviewing contribution: %w", err)
	}

	decision := model.ReviewDecision(v.Decision)
	if _, ok := decision.StatusFor(); !ok {
		return nil, fmt.Errorf("reviewer returned unknown decision %q", v.Decision)
	}

	slog.InfoContext(ctx, "automated review completed",
		"decision", v.Decision,
		"score", v.Score,
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)

	checks := make([]model.ReviewCheck, 0, len(v.Checks))
	for _, ck := range v.Checks {
		checks = append(checks, model.ReviewCheck{Name: ck.Name, Passed: ck.Passed, Detail: ck.Detail})
	}

	return &model.AutomatedReview{
		Decision:   decision,
		Score:      v.Score,
		Checks:     checks,
		Strengths:  v.Strengths,
		Issues:     v.Issues,
		Feedback:   v.Feedback,
		Model:      r.client.Model(),
		ReviewedAt: time.Now().UTC(),
	}, nil
}

func buildPrompt(cl model.Classification, p model.Payload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nCategory: %s\nSlug: %s\n\n", cl.Topic, cl.Category, cl.Slug)
	fmt.Fprintf(&b, "Title: %s\nDifficulty: %s\nVersion: %s\nTags: %s\n\n",
		p.Title, p.Difficulty, p.Version, strings.Join(p.Tags, ", "))
	fmt.Fprintf(&b, "Description:\n%s\n\nBody:\n%s\n", p.Description, p.Body)
	return b.String()
}
