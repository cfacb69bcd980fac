// Package validate holds the structural checks applied to a contribution
// payload at submission and revision time. Checks are pure functions and
// always report every failing field, not just the first, so a submitter can
// fix everything in one pass.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"guidex.app/curator/internal/model"
)

const (
	TitleMinLen       = 5
	TitleMaxLen       = 100
	DescriptionMinLen = 20
	DescriptionMaxLen = 300
	BodyMinLen        = 100
	TagMinLen         = 2
	TagMaxLen         = 30
	MinTags           = 1
	MaxTags           = 10
	slugMinLen        = 2
	slugMaxLen        = 50
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	versionPattern = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Payload checks field presence, length bounds, enum membership and tag
// cardinality. A nil return means the payload is structurally sound.
func Payload(p model.Payload) []FieldError {
	var errs []FieldError

	if n := utf8.RuneCountInString(strings.TrimSpace(p.Title)); n < TitleMinLen || n > TitleMaxLen {
		errs = append(errs, FieldError{
			Field:   "title",
			Message: fmt.Sprintf("must be between %d and %d characters", TitleMinLen, TitleMaxLen),
		})
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(p.Description)); n < DescriptionMinLen || n > DescriptionMaxLen {
		errs = append(errs, FieldError{
			Field:   "description",
			Message: fmt.Sprintf("must be between %d and %d characters", DescriptionMinLen, DescriptionMaxLen),
		})
	}

	if utf8.RuneCountInString(strings.TrimSpace(p.Body)) < BodyMinLen {
		errs = append(errs, FieldError{
			Field:   "body",
			Message: fmt.Sprintf("must be at least %d characters", BodyMinLen),
		})
	}

	if p.Version == "" {
		errs = append(errs, FieldError{Field: "version", Message: "is required"})
	} else if !versionPattern.MatchString(p.Version) {
		errs = append(errs, FieldError{Field: "version", Message: "must look like 1, 1.2 or 1.2.3"})
	}

	switch p.Difficulty {
	case model.DifficultyBeginner, model.DifficultyIntermediate, model.DifficultyAdvanced:
	default:
		errs = append(errs, FieldError{
			Field:   "difficulty",
			Message: "must be one of beginner, intermediate, advanced",
		})
	}

	errs = append(errs, tags(p.Tags)...)

	return errs
}

func tags(values []string) []FieldError {
	if len(values) < MinTags || len(values) > MaxTags {
		return []FieldError{{
			Field:   "tags",
			Message: fmt.Sprintf("must contain between %d and %d entries", MinTags, MaxTags),
		}}
	}

	var errs []FieldError
	seen := make(map[string]bool, len(values))
	for i, tag := range values {
		field := fmt.Sprintf("tags[%d]", i)
		if n := utf8.RuneCountInString(tag); n < TagMinLen || n > TagMaxLen {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("must be between %d and %d characters", TagMinLen, TagMaxLen),
			})
			continue
		}
		if seen[tag] {
			errs = append(errs, FieldError{Field: field, Message: "is a duplicate"})
		}
		seen[tag] = true
	}
	return errs
}

// Classification checks the triple the contribution wants to occupy in the
// corpus. Uniqueness against published content is not checked here; that is
// the store's job, and authoritative only at publish time.
func Classification(c model.Classification) []FieldError {
	var errs []FieldError
	for _, part := range []struct {
		field string
		value string
	}{
		{"topic", c.Topic},
		{"category", c.Category},
		{"slug", c.Slug},
	} {
		field, value := part.field, part.value
		if n := len(value); n < slugMinLen || n > slugMaxLen {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("must be between %d and %d characters", slugMinLen, slugMaxLen),
			})
			continue
		}
		if !slugPattern.MatchString(value) {
			errs = append(errs, FieldError{
				Field:   field,
				Message: "must be lowercase letters, digits and single hyphens",
			})
		}
	}
	return errs
}
