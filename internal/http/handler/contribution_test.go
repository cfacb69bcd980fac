package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"guidex.app/curator/internal/http/handler"
	"guidex.app/curator/internal/http/middleware"
	"guidex.app/curator/internal/model"
	"guidex.app/curator/internal/service"
	"guidex.app/curator/internal/validate"
)

func submitBody() []byte {
	body, _ := json.Marshal(map[string]any{
		"topic":    "golang",
		"category": "concurrency",
		"slug":     "context-cancellation",
		"payload": map[string]any{
			"title":       "Handling context cancellation",
			"description": "How and when to propagate cancellation through goroutines.",
			"body":        "Always pass context as the first argument and honor Done.",
			"version":     "1.0",
			"difficulty":  "intermediate",
			"tags":        []string{"context"},
		},
	})
	return body
}

func authedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "1"})
	return req
}

var _ = Describe("ContributionHandler", func() {
	var (
		router *gin.Engine
		svc    *mockContributionService
		auth   *mockAuthService
	)

	member := &model.User{ID: 100, Name: "Alice", Email: "alice@example.com", Role: model.RoleMember}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockContributionService{}
		auth = &mockAuthService{user: member}

		h := handler.NewContributionHandler(svc)
		rg := router.Group("/contributions")
		rg.Use(middleware.RequireAuth(auth))
		rg.POST("", h.Submit)
		rg.GET("/:id", h.Get)
		rg.PUT("/:id", h.Revise)
		rg.POST("/:id/withdraw", h.Withdraw)
	})

	Describe("Submit", func() {
		It("returns 201 with the created contribution", func() {
			svc.submitFn = func(_ context.Context, params service.SubmitParams) (*service.SubmitResult, error) {
				Expect(params.OwnerID).To(Equal(int64(100)))
				Expect(params.Classification.Slug).To(Equal("context-cancellation"))
				return &service.SubmitResult{
					Contribution: &model.Contribution{
						ID:             1,
						OwnerID:        params.OwnerID,
						Classification: params.Classification,
						Status:         model.StatusPending,
					},
					ReviewQueued: true,
				}, nil
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodPost, "/contributions", submitBody()))

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["review_queued"]).To(BeTrue())
			contribution := resp["contribution"].(map[string]any)
			Expect(contribution["status"]).To(Equal("pending"))
		})

		It("returns 401 without a session", func() {
			req := httptest.NewRequest(http.MethodPost, "/contributions", bytes.NewBuffer(submitBody()))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts the session via the X-Session-ID header", func() {
			svc.submitFn = func(_ context.Context, params service.SubmitParams) (*service.SubmitResult, error) {
				return &service.SubmitResult{
					Contribution: &model.Contribution{
						ID:             1,
						OwnerID:        params.OwnerID,
						Classification: params.Classification,
						Status:         model.StatusPending,
					},
				}, nil
			}

			req := httptest.NewRequest(http.MethodPost, "/contributions", bytes.NewBuffer(submitBody()))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(middleware.SessionIDHeader, "1")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
		})

		It("returns 400 on malformed JSON", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodPost, "/contributions", []byte(`{`)))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 with field details on validation failure", func() {
			svc.submitFn = func(_ context.Context, _ service.SubmitParams) (*service.SubmitResult, error) {
				return nil, &service.ValidationError{Fields: []validate.FieldError{
					{Field: "title", Message: "must be at least 5 characters"},
				}}
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodPost, "/contributions", submitBody()))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["fields"]).To(HaveLen(1))
		})
	})

	Describe("Get", func() {
		It("returns 404 for an invisible contribution", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/contributions/42", nil))

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns the contribution with its payload", func() {
			svc.getFn = func(_ context.Context, actorID, contributionID int64) (*service.ContributionDetail, error) {
				return &service.ContributionDetail{
					Contribution: &model.Contribution{ID: contributionID, OwnerID: actorID, Status: model.StatusAutomatedPass},
					Payload:      &model.Payload{Title: "Handling context cancellation"},
				}, nil
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/contributions/42", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["status"]).To(Equal("automated_pass"))
			payload := resp["payload"].(map[string]any)
			Expect(payload["title"]).To(Equal("Handling context cancellation"))
		})

		It("returns 400 for a non-numeric id", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodGet, "/contributions/abc", nil))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Revise", func() {
		It("maps an illegal state to 409", func() {
			svc.reviseFn = func(_ context.Context, _ service.ReviseParams) (*service.SubmitResult, error) {
				return nil, &service.InvalidStateError{Action: "revise", Current: model.StatusPublished}
			}

			body, _ := json.Marshal(map[string]any{"payload": map[string]any{
				"title":       "Handling context cancellation",
				"description": "How and when to propagate cancellation through goroutines.",
				"body":        "Always pass context as the first argument and honor Done.",
				"version":     "1.0",
				"difficulty":  "intermediate",
				"tags":        []string{"context"},
			}})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodPut, "/contributions/42", body))

			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("Withdraw", func() {
		It("returns the withdrawn contribution", func() {
			svc.withdrawFn = func(_ context.Context, actorID, contributionID int64) (*model.Contribution, error) {
				return &model.Contribution{ID: contributionID, OwnerID: actorID, Status: model.StatusWithdrawn}, nil
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodPost, "/contributions/42/withdraw", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["status"]).To(Equal("withdrawn"))
		})

		It("maps a concurrent modification to 409", func() {
			svc.withdrawFn = func(_ context.Context, _, _ int64) (*model.Contribution, error) {
				return nil, service.ErrConcurrentModification
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(http.MethodPost, "/contributions/42/withdraw", nil))

			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})
})

var _ = Describe("ModerationHandler", func() {
	var (
		router *gin.Engine
		svc    *mockContributionService
		auth   *mockAuthService
	)

	moderator := &model.User{ID: 200, Name: "Mod", Email: "mod@example.com", Role: model.RoleModerator}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockContributionService{}
		auth = &mockAuthService{user: moderator}

		h := handler.NewModerationHandler(svc)
		rg := router.Group("/moderation")
		rg.Use(middleware.RequireAuth(auth))
		rg.Use(middleware.RequireModerator())
		rg.GET("/queue", h.Queue)
		rg.POST("/contributions/:id", h.Decide)
	})

	It("rejects members at the edge with 403", func() {
		auth.user = &model.User{ID: 100, Role: model.RoleMember}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest(http.MethodGet, "/moderation/queue", nil))

		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("lists the queue for the requested status", func() {
		svc.listByStatusFn = func(_ context.Context, actorID int64, status model.Status) ([]model.Contribution, error) {
			Expect(status).To(Equal(model.StatusAutomatedReject))
			return []model.Contribution{{ID: 1, Status: status}}, nil
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest(http.MethodGet, "/moderation/queue?status=automated_reject", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["contributions"]).To(HaveLen(1))
	})

	It("returns the guideline when an approval publishes", func() {
		svc.moderateFn = func(_ context.Context, params service.ModerateParams) (*service.ModerateResult, error) {
			Expect(params.Action).To(Equal(model.ModeratorApprove))
			return &service.ModerateResult{
				Contribution: &model.Contribution{ID: params.ContributionID, Status: model.StatusPublished},
				Guideline:    &model.Guideline{ID: 9, Location: "guides/golang/concurrency/context-cancellation.json"},
			}, nil
		}

		body, _ := json.Marshal(map[string]any{"action": "approve"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest(http.MethodPost, "/moderation/contributions/42", body))

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		guideline := resp["guideline"].(map[string]any)
		Expect(guideline["location"]).To(Equal("guides/golang/concurrency/context-cancellation.json"))
	})

	It("maps a duplicate classification to 409", func() {
		svc.moderateFn = func(_ context.Context, _ service.ModerateParams) (*service.ModerateResult, error) {
			return nil, &service.DuplicateClassificationError{Classification: model.Classification{
				Topic: "golang", Category: "concurrency", Slug: "context-cancellation",
			}}
		}

		body, _ := json.Marshal(map[string]any{"action": "approve"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest(http.MethodPost, "/moderation/contributions/42", body))

		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("maps missing feedback to 400", func() {
		svc.moderateFn = func(_ context.Context, _ service.ModerateParams) (*service.ModerateResult, error) {
			return nil, service.ErrFeedbackRequired
		}

		body, _ := json.Marshal(map[string]any{"action": "request_changes"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest(http.MethodPost, "/moderation/contributions/42", body))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})

var _ = Describe("GuidelineHandler", func() {
	var (
		router *gin.Engine
		svc    *mockGuidelineService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockGuidelineService{}

		h := handler.NewGuidelineHandler(svc)
		rg := router.Group("/guidelines")
		rg.GET("", h.List)
		rg.GET("/:topic/:category/:slug", h.Get)
	})

	It("serves a published guideline without authentication", func() {
		svc.getFn = func(_ context.Context, cl model.Classification) (*model.Guideline, error) {
			return &model.Guideline{
				ID:             9,
				Classification: cl,
				Title:          "Handling context cancellation",
				Location:       "guides/golang/concurrency/context-cancellation.json",
			}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/guidelines/golang/concurrency/context-cancellation", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["topic"]).To(Equal("golang"))
	})

	It("returns 404 for an unknown triple", func() {
		req := httptest.NewRequest(http.MethodGet, "/guidelines/golang/concurrency/unknown", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
