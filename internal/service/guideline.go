package service

import (
	"context"
	"errors"
	"fmt"

	"guidex.app/curator/internal/model"
	"guidex.app/curator/internal/store"
)

// GuidelineService serves the published corpus. Reads are public: once a
// guideline exists it stays readable regardless of what happened to the
// contribution that produced it.
type GuidelineService interface {
	Get(ctx context.Context, classification model.Classification) (*model.Guideline, error)
	List(ctx context.Context, topic string) ([]model.Guideline, error)
}

type guidelineService struct {
	guidelines store.GuidelineStore
}

func NewGuidelineService(guidelines store.GuidelineStore) GuidelineService {
	return &guidelineService{guidelines: guidelines}
}

func (s *guidelineService) Get(ctx context.Context, classification model.Classification) (*model.Guideline, error) {
	g, err := s.guidelines.GetByClassification(ctx, classification)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching guideline: %w", err)
	}
	return g, nil
}

func (s *guidelineService) List(ctx context.Context, topic string) ([]model.Guideline, error) {
	return s.guidelines.List(ctx, topic)
}
