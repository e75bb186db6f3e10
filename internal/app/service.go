/**
 * @description
 * This file contains the core business logic for the application-service. The `Service`
 * struct orchestrates the scholarship application lifecycle, coordinating between the
 * database repository, the hosted checkout provider client, and the message broker.
 *
 * Key features:
 * - Application creation with store-forced initial state (unpaid, pending).
 * - Checkout session initiation with the charged amount always re-derived from
 *   the stored application record, never from caller input.
 * - Moderator status transitions and feedback.
 * - On-demand aggregate reporting.
 *
 * @dependencies
 * - context, errors, fmt, log, math, strings: Standard Go libraries.
 * - github.com/google/uuid: For UUID parsing.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/checkoutclient, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scholarhub/application-service/internal/domain"
	"github.com/scholarhub/application-service/internal/store"
	"github.com/scholarhub/application-service/pkg/checkoutclient"
	"github.com/scholarhub/application-service/pkg/rabbitmq"
)

var (
	ErrMissingScholarshipID     = errors.New("scholarship id is required")
	ErrMissingApplicantEmail    = errors.New("applicant email is required")
	ErrInvalidApplicationAmount = errors.New("application amount must be greater than zero")
	ErrMissingApplicationID     = errors.New("application id is required")
	ErrMissingPayerEmail        = errors.New("payer email is required")
	ErrInvalidApplicationStatus = errors.New("status must be one of processing, completed, rejected")
	ErrEmptyFeedback            = errors.New("feedback must not be empty")
	ErrRateLimited              = errors.New("too many requests")
)

// CheckoutProvider is the narrow capability the service needs from the hosted
// checkout provider. Keeping it an interface lets the reconciliation state
// machine be tested against a substitute implementation.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, params checkoutclient.CreateSessionParams) (*checkoutclient.Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*checkoutclient.Session, error)
}

// RateLimiter is an optional distributed limiter applied to payment endpoints.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic for the application lifecycle.
type Service struct {
	repo          store.Repository
	checkout      CheckoutProvider
	eventProducer rabbitmq.Publisher
	currency      string

	rateLimiter            RateLimiter
	checkoutLimitPerMinute int
	confirmLimitPerMinute  int
}

// NewService creates a new application service instance.
func NewService(repo store.Repository, checkout CheckoutProvider, producer rabbitmq.Publisher, currency string) *Service {
	if strings.TrimSpace(currency) == "" {
		currency = "usd"
	}
	return &Service{
		repo:          repo,
		checkout:      checkout,
		eventProducer: producer,
		currency:      currency,
	}
}

// SetRateLimiter installs an optional distributed rate limiter for the
// checkout initiation and payment confirmation endpoints.
func (s *Service) SetRateLimiter(limiter RateLimiter, checkoutLimitPerMinute, confirmLimitPerMinute int) {
	s.rateLimiter = limiter
	s.checkoutLimitPerMinute = checkoutLimitPerMinute
	s.confirmLimitPerMinute = confirmLimitPerMinute
}

func (s *Service) consumeRateLimit(ctx context.Context, scope, subject string, limit int) error {
	if s.rateLimiter == nil || limit <= 0 {
		return nil
	}
	count, retryAfter, err := s.rateLimiter.ConsumeRateLimit(ctx, scope, subject, limit, time.Minute)
	if err != nil {
		// A broken limiter must not take the payment path down with it.
		log.Printf("level=warn component=service flow=rate_limit msg=\"limiter unavailable; allowing request\" scope=%s err=%v", scope, err)
		return nil
	}
	if count > limit {
		log.Printf("level=info component=service flow=rate_limit outcome=reject scope=%s subject=%s count=%d limit=%d retry_after=%d", scope, subject, count, limit, retryAfter)
		return ErrRateLimited
	}
	return nil
}

// CreateApplication validates and persists a new application. The stored row
// always starts unpaid/pending with zero payment attempts, regardless of any
// status fields a caller might attempt to smuggle in.
func (s *Service) CreateApplication(ctx context.Context, req domain.CreateApplicationRequest) (*domain.Application, error) {
	if strings.TrimSpace(req.ScholarshipID) == "" {
		return nil, ErrMissingScholarshipID
	}
	if strings.TrimSpace(req.ApplicantEmail) == "" {
		return nil, ErrMissingApplicantEmail
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidApplicationAmount
	}

	application := &domain.Application{
		ID:              uuid.New(),
		ScholarshipID:   strings.TrimSpace(req.ScholarshipID),
		ScholarshipName: strings.TrimSpace(req.ScholarshipName),
		ApplicantEmail:  strings.TrimSpace(req.ApplicantEmail),
		ApplicantName:   strings.TrimSpace(req.ApplicantName),
		Amount:          req.Amount,
	}
	if err := s.repo.CreateApplication(ctx, application); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	log.Printf("level=info component=service flow=create_application outcome=created application_id=%s scholarship_id=%s amount=%.2f", application.ID, application.ScholarshipID, application.Amount)
	return application, nil
}

// GetScholarship returns the read-only scholarship view referenced by
// applications. Used by the detail page before an application is created.
func (s *Service) GetScholarship(ctx context.Context, scholarshipID string) (*domain.Scholarship, error) {
	scholarshipID = strings.TrimSpace(scholarshipID)
	if scholarshipID == "" {
		return nil, ErrMissingScholarshipID
	}
	return s.repo.FindScholarshipByID(ctx, scholarshipID)
}

// ListApplicationsByApplicant returns an applicant's applications enriched
// with scholarship display fields.
func (s *Service) ListApplicationsByApplicant(ctx context.Context, email string) ([]domain.ApplicationSummary, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrMissingApplicantEmail
	}
	return s.repo.ListApplicationsByEmail(ctx, email)
}

// ListApplications returns a page of all applications for moderator triage.
func (s *Service) ListApplications(ctx context.Context, opts domain.ApplicationListOptions) ([]domain.ApplicationSummary, error) {
	return s.repo.ListApplications(ctx, opts)
}

// InitiateCheckout requests a hosted checkout session for an application and
// returns the provider's redirect URL. No local state is mutated: sessions may
// be abandoned and re-initiated freely because the charged amount is always
// re-derived from the stored record on every call.
func (s *Service) InitiateCheckout(ctx context.Context, req domain.InitiateCheckoutRequest) (string, error) {
	applicationIDStr := strings.TrimSpace(req.ApplicationID)
	payerEmail := strings.TrimSpace(req.PayerEmail)
	if applicationIDStr == "" {
		return "", ErrMissingApplicationID
	}
	if payerEmail == "" {
		return "", ErrMissingPayerEmail
	}
	applicationID, err := uuid.Parse(applicationIDStr)
	if err != nil {
		return "", fmt.Errorf("%w: malformed application id", ErrMissingApplicationID)
	}

	if err := s.consumeRateLimit(ctx, "checkout_session", payerEmail, s.checkoutLimitPerMinute); err != nil {
		return "", err
	}

	application, err := s.repo.FindApplicationByID(ctx, applicationID)
	if err != nil {
		return "", err
	}

	// The provider expects the amount as a minor-unit integer. The stored
	// amount is authoritative; caller-supplied amounts are never accepted.
	amountMinor := int64(math.Round(application.Amount * 100))

	session, err := s.checkout.CreateSession(ctx, checkoutclient.CreateSessionParams{
		Currency:      s.currency,
		AmountMinor:   amountMinor,
		Description:   application.ScholarshipName,
		CustomerEmail: payerEmail,
		Metadata: map[string]string{
			checkoutclient.MetadataApplicationIDKey: application.ID.String(),
		},
	})
	if err != nil {
		log.Printf("level=warn component=service flow=initiate_checkout outcome=failed application_id=%s err=%v", application.ID, err)
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	log.Printf("level=info component=service flow=initiate_checkout outcome=created application_id=%s session_id=%s amount_minor=%d", application.ID, session.ID, amountMinor)
	return session.URL, nil
}

// SetApplicationStatus applies a moderator status transition. Only the
// moderation states are accepted here; payment owns pending and submitted.
func (s *Service) SetApplicationStatus(ctx context.Context, applicationID uuid.UUID, status string) error {
	switch status {
	case domain.ApplicationStatusProcessing, domain.ApplicationStatusCompleted, domain.ApplicationStatusRejected:
	default:
		return ErrInvalidApplicationStatus
	}
	return s.repo.UpdateApplicationStatus(ctx, applicationID, status)
}

// SetFeedback records moderator feedback on an application.
func (s *Service) SetFeedback(ctx context.Context, applicationID uuid.UUID, feedback string) error {
	trimmed := strings.TrimSpace(feedback)
	if trimmed == "" {
		return ErrEmptyFeedback
	}
	return s.repo.UpdateApplicationFeedback(ctx, applicationID, trimmed)
}

// RemoveApplication permanently deletes an application. Administrative only;
// irreversible.
func (s *Service) RemoveApplication(ctx context.Context, applicationID uuid.UUID) error {
	return s.repo.DeleteApplication(ctx, applicationID)
}

// AggregateStats computes the platform aggregates on demand from stored rows.
// Any mismatch between the fee total and the per-application paid state would
// indicate a reconciler atomicity bug, not a reporting bug.
func (s *Service) AggregateStats(ctx context.Context) (*domain.PlatformStats, error) {
	totalUsers, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	totalScholarships, err := s.repo.CountScholarships(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count scholarships: %w", err)
	}
	totalFees, err := s.repo.TotalFeesCollected(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum collected fees: %w", err)
	}

	return &domain.PlatformStats{
		TotalUsers:         totalUsers,
		TotalScholarships:  totalScholarships,
		TotalFeesCollected: totalFees,
	}, nil
}
