package handler_test

import (
	"context"

	"guidex.app/curator/internal/model"
	"guidex.app/curator/internal/service"
)

type mockContributionService struct {
	submitFn        func(ctx context.Context, params service.SubmitParams) (*service.SubmitResult, error)
	reviseFn        func(ctx context.Context, params service.ReviseParams) (*service.SubmitResult, error)
	withdrawFn      func(ctx context.Context, actorID, contributionID int64) (*model.Contribution, error)
	moderateFn      func(ctx context.Context, params service.ModerateParams) (*service.ModerateResult, error)
	applyReviewFn   func(ctx context.Context, contributionID int64, review *model.AutomatedReview) (bool, error)
	requestReviewFn func(ctx context.Context, actorID, contributionID int64) error
	getFn           func(ctx context.Context, actorID, contributionID int64) (*service.ContributionDetail, error)
	listMineFn      func(ctx context.Context, ownerID int64) ([]model.Contribution, error)
	listByStatusFn  func(ctx context.Context, actorID int64, status model.Status) ([]model.Contribution, error)
}

func (m *mockContributionService) Submit(ctx context.Context, params service.SubmitParams) (*service.SubmitResult, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, params)
	}
	return nil, nil
}

func (m *mockContributionService) Revise(ctx context.Context, params service.ReviseParams) (*service.SubmitResult, error) {
	if m.reviseFn != nil {
		return m.reviseFn(ctx, params)
	}
	return nil, nil
}

func (m *mockContributionService) Withdraw(ctx context.Context, actorID, contributionID int64) (*model.Contribution, error) {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, actorID, contributionID)
	}
	return nil, nil
}

func (m *mockContributionService) Moderate(ctx context.Context, params service.ModerateParams) (*service.ModerateResult, error) {
	if m.moderateFn != nil {
		return m.moderateFn(ctx, params)
	}
	return nil, nil
}

func (m *mockContributionService) ApplyReviewResult(ctx context.Context, contributionID int64, review *model.AutomatedReview) (bool, error) {
	if m.applyReviewFn != nil {
		return m.applyReviewFn(ctx, contributionID, review)
	}
	return false, nil
}

func (m *mockContributionService) RequestReview(ctx context.Context, actorID, contributionID int64) error {
	if m.requestReviewFn != nil {
		return m.requestReviewFn(ctx, actorID, contributionID)
	}
	return nil
}

func (m *mockContributionService) Get(ctx context.Context, actorID, contributionID int64) (*service.ContributionDetail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, actorID, contributionID)
	}
	return nil, service.ErrNotFound
}

func (m *mockContributionService) ListMine(ctx context.Context, ownerID int64) ([]model.Contribution, error) {
	if m.listMineFn != nil {
		return m.listMineFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockContributionService) ListByStatus(ctx context.Context, actorID int64, status model.Status) ([]model.Contribution, error) {
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, actorID, status)
	}
	return nil, nil
}

type mockGuidelineService struct {
	getFn  func(ctx context.Context, classification model.Classification) (*model.Guideline, error)
	listFn func(ctx context.Context, topic string) ([]model.Guideline, error)
}

func (m *mockGuidelineService) Get(ctx context.Context, classification model.Classification) (*model.Guideline, error) {
	if m.getFn != nil {
		return m.getFn(ctx, classification)
	}
	return nil, service.ErrNotFound
}

func (m *mockGuidelineService) List(ctx context.Context, topic string) ([]model.Guideline, error) {
	if m.listFn != nil {
		return m.listFn(ctx, topic)
	}
	return nil, nil
}

type mockAuthService struct {
	user              *model.User
	validateSessionFn func(ctx context.Context, sessionID int64) (*model.User, error)
}

func (m *mockAuthService) GetAuthorizationURL(state string) (string, error) {
	return "https://auth.example.com?state=" + state, nil
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error) {
	return nil, nil, nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, error) {
	if m.validateSessionFn != nil {
		return m.validateSessionFn(ctx, sessionID)
	}
	if m.user != nil {
		return m.user, nil
	}
	return nil, service.ErrSessionExpired
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID int64) error {
	return nil
}
