package service

import (
	"errors"
	"fmt"
	"strings"

	"guidex.app/curator/internal/model"
	"guidex.app/curator/internal/validate"
)

var (
	// ErrNotFound is returned when a contribution or guideline does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the acting user lacks the capability
	// the operation requires (ownership or the moderator role).
	ErrUnauthorized = errors.New("not authorized")

	// ErrConcurrentModification is returned when a conditional write found the
	// contribution changed since it was read. The caller must re-read.
	ErrConcurrentModification = errors.New("contribution was modified concurrently")

	// ErrReviewerUnavailable reports that the review task could not be
	// enqueued. Submissions still succeed; the review is re-triggered later.
	ErrReviewerUnavailable = errors.New("reviewer unavailable")

	// ErrFeedbackRequired is returned when a moderator requests changes
	// without saying what to change.
	ErrFeedbackRequired = errors.New("feedback is required when requesting changes")
)

// ValidationError carries every field failure from a submission or revision so
// the author can fix them all in one pass.
type ValidationError struct {
	Fields []validate.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// InvalidStateError reports an action that the lifecycle does not permit from
// the contribution's current status.
type InvalidStateError struct {
	Action  string
	Current model.Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s a contribution in status %q", e.Action, e.Current)
}

// DuplicateClassificationError reports that the classification triple is
// already taken by a published guideline.
type DuplicateClassificationError struct {
	Classification model.Classification
}

func (e *DuplicateClassificationError) Error() string {
	return fmt.Sprintf("guideline already published at %s/%s/%s",
		e.Classification.Topic, e.Classification.Category, e.Classification.Slug)
}

// PublishError wraps a failure inside the publish transaction. The
// contribution is left in its prior status.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed: %v", e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
