package service_test

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"guidex.app/curator/common/id"
	"guidex.app/curator/internal/model"
	"guidex.app/curator/internal/queue"
	"guidex.app/curator/internal/service"
	"guidex.app/curator/internal/store"
)

func validPayload() model.Payload {
	return model.Payload{
		Title:       "Handling context cancellation",
		Description: "How and when to propagate context cancellation through goroutines.",
		Body:        strings.Repeat("Always pass context as the first argument and honor Done. ", 4),
		Version:     "1.2",
		Difficulty:  model.DifficultyIntermediate,
		Tags:        []string{"context", "goroutines"},
	}
}

func validClassification() model.Classification {
	return model.Classification{
		Topic:    "golang",
		Category: "concurrency",
		Slug:     "context-cancellation",
	}
}

var _ = Describe("ContributionService", func() {
	var (
		svc           service.ContributionService
		contributions *mockContributionStore
		payloads      *mockPayloadStore
		guidelines    *mockGuidelineStore
		producer      *mockQueueProducer
		authorizer    *mockAuthorizer
		publisher     *mockPublisher
		ctx           context.Context
	)

	const (
		ownerID     = int64(100)
		moderatorID = int64(200)
		strangerID  = int64(300)
	)

	BeforeEach(func() {
		ctx = context.Background()
		contributions = &mockContributionStore{}
		payloads = &mockPayloadStore{}
		guidelines = &mockGuidelineStore{}
		producer = &mockQueueProducer{}
		authorizer = &mockAuthorizer{
			canModerateFn: func(ctx context.Context, userID int64) (bool, error) {
				return userID == moderatorID, nil
			},
		}
		publisher = &mockPublisher{}

		err := id.Init(1)
		Expect(err).NotTo(HaveOccurred())

		txRunner := &mockTxRunner{
			provider: &mockStoreProvider{
				contributions: contributions,
				payloads:      payloads,
				guidelines:    guidelines,
			},
		}

		svc = service.NewContributionService(contributions, payloads, txRunner, producer, authorizer, publisher, nil)
	})

	pendingContribution := func() *model.Contribution {
		return &model.Contribution{
			ID:             42,
			OwnerID:        ownerID,
			Classification: validClassification(),
			Status:         model.StatusPending,
		}
	}

	Describe("Submit", func() {
		It("creates a pending contribution and enqueues the review", func() {
			result, err := svc.Submit(ctx, service.SubmitParams{
				OwnerID:        ownerID,
				Classification: validClassification(),
				Payload:        validPayload(),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Contribution.Status).To(Equal(model.StatusPending))
			Expect(result.Contribution.OwnerID).To(Equal(ownerID))
			Expect(result.Contribution.ID).NotTo(BeZero())
			Expect(result.ReviewQueued).To(BeTrue())

			Expect(payloads.putCalls).To(Equal(1))
			Expect(producer.enqueueCalls).To(Equal(1))
			Expect(producer.lastMessage.ContributionID).To(Equal(result.Contribution.ID))
		})

		It("rejects an invalid payload without touching the stores", func() {
			payload := validPayload()
			payload.Title = "abc"

			_, err := svc.Submit(ctx, service.SubmitParams{
				OwnerID:        ownerID,
				Classification: validClassification(),
				Payload:        payload,
			})

			var verr *service.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(contributions.captured).To(BeNil())
			Expect(producer.enqueueCalls).To(BeZero())
		})

		It("rejects an invalid classification", func() {
			cl := validClassification()
			cl.Topic = "Not A Topic"

			_, err := svc.Submit(ctx, service.SubmitParams{
				OwnerID:        ownerID,
				Classification: cl,
				Payload:        validPayload(),
			})

			var verr *service.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
		})

		It("normalizes the submitted slug", func() {
			cl := validClassification()
			cl.Slug = "Context  Cancellation!"

			result, err := svc.Submit(ctx, service.SubmitParams{
				OwnerID:        ownerID,
				Classification: cl,
				Payload:        validPayload(),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Contribution.Classification.Slug).To(Equal("context-cancellation"))
		})

		It("derives the slug from the title when none is given", func() {
			cl := validClassification()
			cl.Slug = ""

			result, err := svc.Submit(ctx, service.SubmitParams{
				OwnerID:        ownerID,
				Classification: cl,
				Payload:        validPayload(),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Contribution.Classification.Slug).To(Equal("handling-context-cancellation"))
		})

		It("rejects a classification already published", func() {
			guidelines.existsFn = func(ctx context.Context, c model.Classification) (bool, error) {
				return true, nil
			}

			_, err := svc.Submit(ctx, service.SubmitParams{
				OwnerID:        ownerID,
				Classification: validClassification(),
				Payload:        validPayload(),
			})

			var derr *service.DuplicateClassificationError
			Expect(errors.As(err, &derr)).To(BeTrue())
			Expect(contributions.captured).To(BeNil())
			Expect(producer.enqueueCalls).To(BeZero())
		})

		It("still succeeds when the review queue is down", func() {
			producer.enqueueFn = func(ctx context.Context, msg queue.ReviewMessage) error {
				return errors.New("redis gone")
			}

			result, err := svc.Submit(ctx, service.SubmitParams{
				OwnerID:        ownerID,
				Classification: validClassification(),
				Payload:        validPayload(),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Contribution.Status).To(Equal(model.StatusPending))
			Expect(result.ReviewQueued).To(BeFalse())
		})
	})

	Describe("Revise", func() {
		It("resets an automated_needs_changes contribution to pending", func() {
			c := pendingContribution()
			c.Status = model.StatusAutomatedNeedsChanges
			c.AutomatedReview = &model.AutomatedReview{Decision: model.ReviewNeedsChanges, Feedback: "too thin"}
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}

			result, err := svc.Revise(ctx, service.ReviseParams{
				ActorID:        ownerID,
				ContributionID: c.ID,
				Payload:        validPayload(),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Contribution.Status).To(Equal(model.StatusPending))
			Expect(result.Contribution.AutomatedReview).To(BeNil())
			Expect(result.Contribution.ModeratorDecision).To(BeNil())
			Expect(result.ReviewQueued).To(BeTrue())

			Expect(contributions.lastExpected).To(Equal(model.StatusAutomatedNeedsChanges))
			Expect(payloads.putCalls).To(Equal(1))
		})

		It("allows revising while still pending", func() {
			c := pendingContribution()
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}

			result, err := svc.Revise(ctx, service.ReviseParams{
				ActorID:        ownerID,
				ContributionID: c.ID,
				Payload:        validPayload(),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Contribution.Status).To(Equal(model.StatusPending))
		})

		It("refuses revision from automated_pass", func() {
			c := pendingContribution()
			c.Status = model.StatusAutomatedPass
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}

			_, err := svc.Revise(ctx, service.ReviseParams{
				ActorID:        ownerID,
				ContributionID: c.ID,
				Payload:        validPayload(),
			})

			var serr *service.InvalidStateError
			Expect(errors.As(err, &serr)).To(BeTrue())
			Expect(serr.Current).To(Equal(model.StatusAutomatedPass))
		})

		It("refuses revision by anyone but the owner", func() {
			c := pendingContribution()
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}

			_, err := svc.Revise(ctx, service.ReviseParams{
				ActorID:        strangerID,
				ContributionID: c.ID,
				Payload:        validPayload(),
			})

			Expect(err).To(MatchError(service.ErrUnauthorized))
		})

		It("surfaces a concurrent modification", func() {
			c := pendingContribution()
			c.Status = model.StatusModeratorNeedsChanges
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}
			contributions.updateIfStatusFn = func(ctx context.Context, id int64, expected model.Status, c *model.Contribution) error {
				return store.ErrConcurrencyConflict
			}

			_, err := svc.Revise(ctx, service.ReviseParams{
				ActorID:        ownerID,
				ContributionID: c.ID,
				Payload:        validPayload(),
			})

			Expect(err).To(MatchError(service.ErrConcurrentModification))
		})
	})

	Describe("Withdraw", func() {
		DescribeTable("withdraws from any non-terminal status",
			func(status model.Status) {
				c := pendingContribution()
				c.Status = status
				contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
					return c, nil
				}

				updated, err := svc.Withdraw(ctx, ownerID, c.ID)

				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Status).To(Equal(model.StatusWithdrawn))
				Expect(contributions.lastExpected).To(Equal(status))
			},
			Entry("pending", model.StatusPending),
			Entry("automated_pass", model.StatusAutomatedPass),
			Entry("automated_needs_changes", model.StatusAutomatedNeedsChanges),
			Entry("automated_reject", model.StatusAutomatedReject),
			Entry("moderator_needs_changes", model.StatusModeratorNeedsChanges),
		)

		It("returns the refreshed update timestamp", func() {
			stale := time.Now().Add(-time.Hour)
			c := pendingContribution()
			c.UpdatedAt = stale
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}

			updated, err := svc.Withdraw(ctx, ownerID, c.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.UpdatedAt).To(BeTemporally(">", stale))
		})

		It("refuses to withdraw a published contribution", func() {
			c := pendingContribution()
			c.Status = model.StatusPublished
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}

			_, err := svc.Withdraw(ctx, ownerID, c.ID)

			var serr *service.InvalidStateError
			Expect(errors.As(err, &serr)).To(BeTrue())
		})
	})

	Describe("Moderate", func() {
		It("refuses non-moderators", func() {
			_, err := svc.Moderate(ctx, service.ModerateParams{
				ActorID:        strangerID,
				ContributionID: 42,
				Action:         model.ModeratorApprove,
			})

			Expect(err).To(MatchError(service.ErrUnauthorized))
		})

		Context("approve", func() {
			It("publishes a contribution that passed automated review", func() {
				c := pendingContribution()
				c.Status = model.StatusAutomatedPass
				contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
					return c, nil
				}
				p := validPayload()
				payloads.getFn = func(ctx context.Context, contributionID int64) (*model.Payload, error) {
					return &p, nil
				}

				result, err := svc.Moderate(ctx, service.ModerateParams{
					ActorID:        moderatorID,
					ContributionID: c.ID,
					Action:         model.ModeratorApprove,
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Guideline).NotTo(BeNil())
				Expect(publisher.publishCalls).To(Equal(1))
			})

			It("can approve straight from pending, overriding the reviewer", func() {
				c := pendingContribution()
				contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
					return c, nil
				}
				p := validPayload()
				payloads.getFn = func(ctx context.Context, contributionID int64) (*model.Payload, error) {
					return &p, nil
				}

				_, err := svc.Moderate(ctx, service.ModerateParams{
					ActorID:        moderatorID,
					ContributionID: c.ID,
					Action:         model.ModeratorApprove,
				})

				Expect(err).NotTo(HaveOccurred())
			})

			It("refuses approval while changes are outstanding", func() {
				c := pendingContribution()
				c.Status = model.StatusModeratorNeedsChanges
				contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
					return c, nil
				}

				_, err := svc.Moderate(ctx, service.ModerateParams{
					ActorID:        moderatorID,
					ContributionID: c.ID,
					Action:         model.ModeratorApprove,
				})

				var serr *service.InvalidStateError
				Expect(errors.As(err, &serr)).To(BeTrue())
				Expect(publisher.publishCalls).To(BeZero())
			})
		})

		Context("reject", func() {
			It("records the decision and moves to rejected", func() {
				c := pendingContribution()
				c.Status = model.StatusAutomatedReject
				contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
					return c, nil
				}

				result, err := svc.Moderate(ctx, service.ModerateParams{
					ActorID:        moderatorID,
					ContributionID: c.ID,
					Action:         model.ModeratorReject,
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Contribution.Status).To(Equal(model.StatusRejected))
				Expect(result.Contribution.ModeratorDecision).NotTo(BeNil())
				Expect(result.Contribution.ModeratorDecision.ModeratorID).To(Equal(moderatorID))
			})
		})

		Context("request changes", func() {
			It("requires feedback", func() {
				c := pendingContribution()
				contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
					return c, nil
				}

				_, err := svc.Moderate(ctx, service.ModerateParams{
					ActorID:        moderatorID,
					ContributionID: c.ID,
					Action:         model.ModeratorRequestChanges,
				})

				Expect(err).To(MatchError(service.ErrFeedbackRequired))
			})

			It("moves to moderator_needs_changes with the feedback attached", func() {
				c := pendingContribution()
				c.Status = model.StatusAutomatedNeedsChanges
				contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
					return c, nil
				}
				feedback := "cite the runtime version this applies to"

				result, err := svc.Moderate(ctx, service.ModerateParams{
					ActorID:        moderatorID,
					ContributionID: c.ID,
					Action:         model.ModeratorRequestChanges,
					Feedback:       &feedback,
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Contribution.Status).To(Equal(model.StatusModeratorNeedsChanges))
				Expect(*result.Contribution.ModeratorDecision.Feedback).To(Equal(feedback))
			})

			It("refuses a repeated request from moderator_needs_changes", func() {
				c := pendingContribution()
				c.Status = model.StatusModeratorNeedsChanges
				contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
					return c, nil
				}
				feedback := "still not enough"

				_, err := svc.Moderate(ctx, service.ModerateParams{
					ActorID:        moderatorID,
					ContributionID: c.ID,
					Action:         model.ModeratorRequestChanges,
					Feedback:       &feedback,
				})

				var serr *service.InvalidStateError
				Expect(errors.As(err, &serr)).To(BeTrue())
			})
		})
	})

	Describe("ApplyReviewResult", func() {
		review := func(d model.ReviewDecision) *model.AutomatedReview {
			return &model.AutomatedReview{Decision: d, Score: 80, Feedback: "fine"}
		}

		DescribeTable("maps the verdict onto the automated statuses",
			func(decision model.ReviewDecision, want model.Status) {
				c := pendingContribution()
				contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
					return c, nil
				}

				applied, err := svc.ApplyReviewResult(ctx, c.ID, review(decision))

				Expect(err).NotTo(HaveOccurred())
				Expect(applied).To(BeTrue())
				Expect(contributions.captured.Status).To(Equal(want))
				Expect(contributions.lastExpected).To(Equal(model.StatusPending))
			},
			Entry("approve", model.ReviewApprove, model.StatusAutomatedPass),
			Entry("needs_changes", model.ReviewNeedsChanges, model.StatusAutomatedNeedsChanges),
			Entry("reject", model.ReviewReject, model.StatusAutomatedReject),
		)

		It("drops a result arriving after the contribution moved on", func() {
			c := pendingContribution()
			c.Status = model.StatusWithdrawn
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}

			applied, err := svc.ApplyReviewResult(ctx, c.ID, review(model.ReviewApprove))

			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeFalse())
			Expect(contributions.updateCalls).To(BeZero())
		})

		It("drops a result losing the race to a concurrent action", func() {
			c := pendingContribution()
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}
			contributions.updateIfStatusFn = func(ctx context.Context, id int64, expected model.Status, c *model.Contribution) error {
				return store.ErrConcurrencyConflict
			}

			applied, err := svc.ApplyReviewResult(ctx, c.ID, review(model.ReviewApprove))

			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeFalse())
		})
	})

	Describe("Get", func() {
		It("returns the owner's contribution with its payload", func() {
			c := pendingContribution()
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}
			p := validPayload()
			payloads.getFn = func(ctx context.Context, contributionID int64) (*model.Payload, error) {
				return &p, nil
			}

			detail, err := svc.Get(ctx, ownerID, c.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Contribution.ID).To(Equal(c.ID))
			Expect(detail.Payload.Title).To(Equal(p.Title))
		})

		It("hides other members' contributions", func() {
			c := pendingContribution()
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}

			_, err := svc.Get(ctx, strangerID, c.ID)

			Expect(err).To(MatchError(service.ErrNotFound))
		})

		It("lets moderators see any contribution", func() {
			c := pendingContribution()
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}

			detail, err := svc.Get(ctx, moderatorID, c.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Contribution.ID).To(Equal(c.ID))
		})
	})

	Describe("ListByStatus", func() {
		It("is moderator-only", func() {
			_, err := svc.ListByStatus(ctx, ownerID, model.StatusAutomatedPass)
			Expect(err).To(MatchError(service.ErrUnauthorized))
		})

		It("rejects unknown statuses", func() {
			_, err := svc.ListByStatus(ctx, moderatorID, model.Status("bogus"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RequestReview", func() {
		It("re-enqueues for a pending contribution", func() {
			c := pendingContribution()
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}

			err := svc.RequestReview(ctx, ownerID, c.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(producer.enqueueCalls).To(Equal(1))
		})

		It("reports the reviewer unavailable when enqueue fails", func() {
			c := pendingContribution()
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}
			producer.enqueueFn = func(ctx context.Context, msg queue.ReviewMessage) error {
				return errors.New("redis gone")
			}

			err := svc.RequestReview(ctx, ownerID, c.ID)

			Expect(err).To(MatchError(service.ErrReviewerUnavailable))
		})

		It("refuses once a verdict has landed", func() {
			c := pendingContribution()
			c.Status = model.StatusAutomatedPass
			contributions.getByIDFn = func(ctx context.Context, id int64) (*model.Contribution, error) {
				return c, nil
			}

			err := svc.RequestReview(ctx, ownerID, c.ID)

			var serr *service.InvalidStateError
			Expect(errors.As(err, &serr)).To(BeTrue())
		})
	})
})
