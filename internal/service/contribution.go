package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"guidex.app/curator/common"
	"guidex.app/curator/common/id"
	"guidex.app/curator/internal/model"
	"guidex.app/curator/internal/queue"
	"guidex.app/curator/internal/store"
	"guidex.app/curator/internal/validate"
)

type SubmitParams struct {
	OwnerID        int64
	Classification model.Classification
	Payload        model.Payload
	TraceID        *string
}

type ReviseParams struct {
	ActorID        int64
	ContributionID int64
	Payload        model.Payload
	TraceID        *string
}

type ModerateParams struct {
	ActorID        int64
	ContributionID int64
	Action         model.ModeratorAction
	Feedback       *string
}

// SubmitResult reports whether the review task made it onto the stream. A
// false ReviewQueued is not an error: the submission is accepted either way
// and the review is re-triggered later.
type SubmitResult struct {
	Contribution *model.Contribution
	ReviewQueued bool
}

type ModerateResult struct {
	Contribution *model.Contribution
	Guideline    *model.Guideline
}

// ContributionDetail is a contribution joined with its content.
type ContributionDetail struct {
	Contribution *model.Contribution
	Payload      *model.Payload
}

type ContributionService interface {
	Submit(ctx context.Context, params SubmitParams) (*SubmitResult, error)
	Revise(ctx context.Context, params ReviseParams) (*SubmitResult, error)
	Withdraw(ctx context.Context, actorID, contributionID int64) (*model.Contribution, error)
	Moderate(ctx context.Context, params ModerateParams) (*ModerateResult, error)
	// ApplyReviewResult records the automated verdict. Late results are
	// dropped without error when the contribution has already moved on.
	ApplyReviewResult(ctx context.Context, contributionID int64, review *model.AutomatedReview) (bool, error)
	// RequestReview re-enqueues the review task for a pending contribution
	// whose result never arrived.
	RequestReview(ctx context.Context, actorID, contributionID int64) error
	Get(ctx context.Context, actorID, contributionID int64) (*ContributionDetail, error)
	ListMine(ctx context.Context, ownerID int64) ([]model.Contribution, error)
	ListByStatus(ctx context.Context, actorID int64, status model.Status) ([]model.Contribution, error)
}

type contributionService struct {
	contributions store.ContributionStore
	payloads      store.PayloadStore
	txRunner      TxRunner
	queue         queue.Producer
	authorizer    Authorizer
	publisher     Publisher
	logger        *slog.Logger
}

func NewContributionService(
	contributions store.ContributionStore,
	payloads store.PayloadStore,
	txRunner TxRunner,
	producer queue.Producer,
	authorizer Authorizer,
	publisher Publisher,
	logger *slog.Logger,
) ContributionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &contributionService{
		contributions: contributions,
		payloads:      payloads,
		txRunner:      txRunner,
		queue:         producer,
		authorizer:    authorizer,
		publisher:     publisher,
		logger:        logger,
	}
}

func (s *contributionService) Submit(ctx context.Context, params SubmitParams) (*SubmitResult, error) {
	// The slug is free text from the submitter and gets normalized; topic and
	// category name existing corpus namespaces and must arrive well-formed.
	slug, err := common.Slugify(params.Classification.Slug, params.Payload.Title)
	if err != nil {
		return nil, &ValidationError{Fields: []validate.FieldError{
			{Field: "slug", Message: "cannot be empty"},
		}}
	}
	params.Classification.Slug = slug

	if fields := append(
		validate.Classification(params.Classification),
		validate.Payload(params.Payload)...,
	); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	contribution := &model.Contribution{
		ID:             id.New(),
		OwnerID:        params.OwnerID,
		Classification: params.Classification,
		Status:         model.StatusPending,
	}

	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		// Advisory only: the publish transaction re-checks the triple and the
		// unique index has the final word. This just fails the obvious case
		// before a reviewer cycle is spent on it.
		taken, err := sp.Guidelines().Exists(ctx, params.Classification)
		if err != nil {
			return fmt.Errorf("checking classification: %w", err)
		}
		if taken {
			return &DuplicateClassificationError{Classification: params.Classification}
		}
		if err := sp.Contributions().Create(ctx, contribution); err != nil {
			return fmt.Errorf("creating contribution: %w", err)
		}
		if err := sp.Payloads().Put(ctx, contribution.ID, params.Payload); err != nil {
			return fmt.Errorf("storing payload: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	queued := s.enqueueReview(ctx, contribution.ID, params.TraceID)

	s.logger.InfoContext(ctx, "contribution submitted",
		"contribution_id", contribution.ID,
		"owner_id", params.OwnerID,
		"review_queued", queued)

	return &SubmitResult{Contribution: contribution, ReviewQueued: queued}, nil
}

func (s *contributionService) Revise(ctx context.Context, params ReviseParams) (*SubmitResult, error) {
	if fields := validate.Payload(params.Payload); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	contribution, err := s.getOwned(ctx, params.ActorID, params.ContributionID)
	if err != nil {
		return nil, err
	}

	if !contribution.Status.Editable() {
		return nil, &InvalidStateError{Action: "revise", Current: contribution.Status}
	}

	priorStatus := contribution.Status

	// A revision resets the lifecycle: back to pending with all prior review
	// and moderation feedback cleared, so stale verdicts never describe the
	// new content.
	updated := *contribution
	updated.Status = model.StatusPending
	updated.AutomatedReview = nil
	updated.ModeratorDecision = nil

	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.Contributions().UpdateIfStatus(ctx, contribution.ID, priorStatus, &updated); err != nil {
			if errors.Is(err, store.ErrConcurrencyConflict) {
				return ErrConcurrentModification
			}
			return fmt.Errorf("resetting contribution: %w", err)
		}
		if err := sp.Payloads().Put(ctx, contribution.ID, params.Payload); err != nil {
			return fmt.Errorf("replacing payload: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	queued := s.enqueueReview(ctx, contribution.ID, params.TraceID)

	s.logger.InfoContext(ctx, "contribution revised",
		"contribution_id", contribution.ID,
		"prior_status", string(priorStatus),
		"review_queued", queued)

	return &SubmitResult{Contribution: &updated, ReviewQueued: queued}, nil
}

func (s *contributionService) Withdraw(ctx context.Context, actorID, contributionID int64) (*model.Contribution, error) {
	contribution, err := s.getOwned(ctx, actorID, contributionID)
	if err != nil {
		return nil, err
	}

	if !model.CanTransition(contribution.Status, model.StatusWithdrawn) {
		return nil, &InvalidStateError{Action: "withdraw", Current: contribution.Status}
	}

	priorStatus := contribution.Status
	updated := *contribution
	updated.Status = model.StatusWithdrawn

	if err := s.contributions.UpdateIfStatus(ctx, contributionID, priorStatus, &updated); err != nil {
		if errors.Is(err, store.ErrConcurrencyConflict) {
			return nil, ErrConcurrentModification
		}
		return nil, fmt.Errorf("withdrawing contribution: %w", err)
	}

	s.logger.InfoContext(ctx, "contribution withdrawn",
		"contribution_id", contributionID, "prior_status", string(priorStatus))

	return &updated, nil
}

func (s *contributionService) Moderate(ctx context.Context, params ModerateParams) (*ModerateResult, error) {
	allowed, err := s.authorizer.CanModerate(ctx, params.ActorID)
	if err != nil {
		return nil, fmt.Errorf("checking moderator capability: %w", err)
	}
	if !allowed {
		return nil, ErrUnauthorized
	}

	contribution, err := s.contributions.GetByID(ctx, params.ContributionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching contribution: %w", err)
	}

	switch params.Action {
	case model.ModeratorApprove:
		return s.approve(ctx, contribution, params)
	case model.ModeratorReject:
		return s.reject(ctx, contribution, params)
	case model.ModeratorRequestChanges:
		return s.requestChanges(ctx, contribution, params)
	default:
		return nil, fmt.Errorf("unknown moderator action %q", params.Action)
	}
}

func (s *contributionService) approve(ctx context.Context, c *model.Contribution, params ModerateParams) (*ModerateResult, error) {
	if !model.CanTransition(c.Status, model.StatusPublished) {
		return nil, &InvalidStateError{Action: "approve", Current: c.Status}
	}

	payload, err := s.payloads.Get(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching payload: %w", err)
	}

	decision := model.ModeratorDecision{
		Action:      model.ModeratorApprove,
		ModeratorID: params.ActorID,
		Feedback:    params.Feedback,
		DecidedAt:   time.Now().UTC(),
	}

	guideline, err := s.publisher.Publish(ctx, c, *payload, decision)
	if err != nil {
		return nil, err
	}

	return &ModerateResult{Contribution: c, Guideline: guideline}, nil
}

func (s *contributionService) reject(ctx context.Context, c *model.Contribution, params ModerateParams) (*ModerateResult, error) {
	if !model.CanTransition(c.Status, model.StatusRejected) {
		return nil, &InvalidStateError{Action: "reject", Current: c.Status}
	}

	priorStatus := c.Status
	updated := *c
	updated.Status = model.StatusRejected
	updated.ModeratorDecision = &model.ModeratorDecision{
		Action:      model.ModeratorReject,
		ModeratorID: params.ActorID,
		Feedback:    params.Feedback,
		DecidedAt:   time.Now().UTC(),
	}

	if err := s.contributions.UpdateIfStatus(ctx, c.ID, priorStatus, &updated); err != nil {
		if errors.Is(err, store.ErrConcurrencyConflict) {
			return nil, ErrConcurrentModification
		}
		return nil, fmt.Errorf("rejecting contribution: %w", err)
	}

	s.logger.InfoContext(ctx, "contribution rejected",
		"contribution_id", c.ID, "moderator_id", params.ActorID)

	return &ModerateResult{Contribution: &updated}, nil
}

func (s *contributionService) requestChanges(ctx context.Context, c *model.Contribution, params ModerateParams) (*ModerateResult, error) {
	if params.Feedback == nil || *params.Feedback == "" {
		return nil, ErrFeedbackRequired
	}

	if !model.CanTransition(c.Status, model.StatusModeratorNeedsChanges) {
		return nil, &InvalidStateError{Action: "request changes on", Current: c.Status}
	}

	priorStatus := c.Status
	updated := *c
	updated.Status = model.StatusModeratorNeedsChanges
	updated.ModeratorDecision = &model.ModeratorDecision{
		Action:      model.ModeratorRequestChanges,
		ModeratorID: params.ActorID,
		Feedback:    params.Feedback,
		DecidedAt:   time.Now().UTC(),
	}

	if err := s.contributions.UpdateIfStatus(ctx, c.ID, priorStatus, &updated); err != nil {
		if errors.Is(err, store.ErrConcurrencyConflict) {
			return nil, ErrConcurrentModification
		}
		return nil, fmt.Errorf("requesting changes: %w", err)
	}

	s.logger.InfoContext(ctx, "moderator requested changes",
		"contribution_id", c.ID, "moderator_id", params.ActorID)

	return &ModerateResult{Contribution: &updated}, nil
}

func (s *contributionService) ApplyReviewResult(ctx context.Context, contributionID int64, review *model.AutomatedReview) (bool, error) {
	target, ok := review.Decision.StatusFor()
	if !ok {
		return false, fmt.Errorf("unknown review decision %q", review.Decision)
	}

	contribution, err := s.contributions.GetByID(ctx, contributionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("fetching contribution: %w", err)
	}

	// A result can arrive after the owner revised, withdrew, or a moderator
	// acted. The verdict describes content that may no longer exist, so it is
	// dropped rather than applied.
	if !contribution.Status.Reviewable() {
		s.logger.InfoContext(ctx, "dropping late review result",
			"contribution_id", contributionID,
			"status", string(contribution.Status),
			"decision", string(review.Decision))
		return false, nil
	}

	updated := *contribution
	updated.Status = target
	updated.AutomatedReview = review

	if err := s.contributions.UpdateIfStatus(ctx, contributionID, model.StatusPending, &updated); err != nil {
		if errors.Is(err, store.ErrConcurrencyConflict) {
			// Raced with a revision or moderator action between the read and
			// the write; same outcome as reading the later status.
			s.logger.InfoContext(ctx, "dropping late review result after conflict",
				"contribution_id", contributionID)
			return false, nil
		}
		return false, fmt.Errorf("applying review result: %w", err)
	}

	s.logger.InfoContext(ctx, "review result applied",
		"contribution_id", contributionID,
		"decision", string(review.Decision),
		"score", review.Score)

	return true, nil
}

func (s *contributionService) RequestReview(ctx context.Context, actorID, contributionID int64) error {
	contribution, err := s.contributions.GetByID(ctx, contributionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("fetching contribution: %w", err)
	}

	if contribution.OwnerID != actorID {
		allowed, err := s.authorizer.CanModerate(ctx, actorID)
		if err != nil {
			return fmt.Errorf("checking moderator capability: %w", err)
		}
		if !allowed {
			return ErrUnauthorized
		}
	}

	if !contribution.Status.Reviewable() {
		return &InvalidStateError{Action: "re-review", Current: contribution.Status}
	}

	if !s.enqueueReview(ctx, contributionID, nil) {
		return ErrReviewerUnavailable
	}
	return nil
}

func (s *contributionService) Get(ctx context.Context, actorID, contributionID int64) (*ContributionDetail, error) {
	contribution, err := s.contributions.GetByID(ctx, contributionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching contribution: %w", err)
	}

	if contribution.OwnerID != actorID {
		allowed, err := s.authorizer.CanModerate(ctx, actorID)
		if err != nil {
			return nil, fmt.Errorf("checking moderator capability: %w", err)
		}
		if !allowed {
			// Existence of someone else's contribution is not disclosed.
			return nil, ErrNotFound
		}
	}

	payload, err := s.payloads.Get(ctx, contributionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("fetching payload: %w", err)
	}

	return &ContributionDetail{Contribution: contribution, Payload: payload}, nil
}

func (s *contributionService) ListMine(ctx context.Context, ownerID int64) ([]model.Contribution, error) {
	return s.contributions.ListByOwner(ctx, ownerID)
}

func (s *contributionService) ListByStatus(ctx context.Context, actorID int64, status model.Status) ([]model.Contribution, error) {
	allowed, err := s.authorizer.CanModerate(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("checking moderator capability: %w", err)
	}
	if !allowed {
		return nil, ErrUnauthorized
	}

	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	return s.contributions.ListByStatus(ctx, status)
}

func (s *contributionService) getOwned(ctx context.Context, actorID, contributionID int64) (*model.Contribution, error) {
	contribution, err := s.contributions.GetByID(ctx, contributionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching contribution: %w", err)
	}
	if contribution.OwnerID != actorID {
		return nil, ErrUnauthorized
	}
	return contribution, nil
}

func (s *contributionService) enqueueReview(ctx context.Context, contributionID int64, traceID *string) bool {
	err := s.queue.Enqueue(ctx, queue.ReviewMessage{
		ContributionID: contributionID,
		Attempt:        1,
		TraceID:        traceID,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue review task",
			"contribution_id", contributionID, "error", err)
		return false
	}
	return true
}
