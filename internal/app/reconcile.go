/**
 * @description
 * This file contains the payment reconciliation state machine: the logic that
 * consumes a provider-issued session reference, verifies the payment with the
 * checkout provider, and idempotently transitions the application from unpaid
 * to paid exactly once.
 *
 * Reconciliation order matters:
 *   1. validate the session reference,
 *   2. verify the session with the provider (retryable on failure),
 *   3. recover the application id from session metadata, never from the caller,
 *   4. bail out without mutation if the provider has not completed the payment,
 *   5. short-circuit if the application is already paid (idempotency guard),
 *   6. apply the transition as one conditional store update,
 *   7. report the provider-confirmed amount, not the locally stored one.
 *
 * @dependencies
 * - context, errors, fmt, log, strings, time: Standard Go libraries.
 * - github.com/google/uuid: For parsing the recovered application id.
 * - internal/domain, internal/store, pkg/checkoutclient: Models, data access,
 *   and the provider boundary.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scholarhub/application-service/internal/domain"
	"github.com/scholarhub/application-service/pkg/checkoutclient"
)

var (
	// ErrMissingSessionReference is a caller error: no session reference supplied.
	ErrMissingSessionReference = errors.New("session reference is required")

	// ErrPaymentVerificationFailed means the provider could not be reached or
	// the reference is unknown. Transient and safe to retry: it is raised
	// before any mutation.
	ErrPaymentVerificationFailed = errors.New("payment verification failed")

	// ErrSessionMetadataMissing means the session exists but does not carry a
	// usable application binding. Indicates corruption or tampering; never
	// treated as success and never retried automatically.
	ErrSessionMetadataMissing = errors.New("session metadata is missing the application binding")
)

// ConfirmPayment reconciles a checkout session against the stored application.
// A repeated call for an already-paid application is a designed no-op success
// reporting the previously recorded amount and transaction id.
func (s *Service) ConfirmPayment(ctx context.Context, sessionRef string) (*domain.PaymentConfirmation, error) {
	sessionRef = strings.TrimSpace(sessionRef)
	if sessionRef == "" {
		return nil, ErrMissingSessionReference
	}

	if err := s.consumeRateLimit(ctx, "confirm_payment", sessionRef, s.confirmLimitPerMinute); err != nil {
		return nil, err
	}

	session, err := s.checkout.RetrieveSession(ctx, sessionRef)
	if err != nil {
		log.Printf("level=warn component=service flow=confirm_payment outcome=verification_failed session_id=%s err=%v", sessionRef, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentVerificationFailed, err)
	}

	// The session metadata is the authoritative binding between the provider
	// session and the local record. Query parameters are never consulted.
	applicationIDStr := strings.TrimSpace(session.Metadata[checkoutclient.MetadataApplicationIDKey])
	if applicationIDStr == "" {
		log.Printf("level=error component=service flow=confirm_payment outcome=integrity_error session_id=%s msg=\"session metadata has no application id\"", sessionRef)
		return nil, ErrSessionMetadataMissing
	}
	applicationID, err := uuid.Parse(applicationIDStr)
	if err != nil {
		log.Printf("level=error component=service flow=confirm_payment outcome=integrity_error session_id=%s application_id=%q msg=\"unparsable application id in session metadata\"", sessionRef, applicationIDStr)
		return nil, fmt.Errorf("%w: %v", ErrSessionMetadataMissing, err)
	}

	// Not an error: the session exists but the provider has not completed the
	// payment. The caller may retry once payment completes.
	if session.PaymentStatus != checkoutclient.PaymentStatusCompleted {
		log.Printf("level=info component=service flow=confirm_payment outcome=not_completed session_id=%s application_id=%s provider_status=%s", sessionRef, applicationID, session.PaymentStatus)
		return &domain.PaymentConfirmation{
			Success:        false,
			ProviderStatus: session.PaymentStatus,
		}, nil
	}

	application, err := s.repo.FindApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	// Idempotency guard: duplicate confirmation clicks, retried callbacks and
	// network retries all converge here instead of double-counting revenue.
	if application.PaymentStatus == domain.PaymentStatusPaid {
		return alreadyPaidConfirmation(application), nil
	}

	transactionID := strings.TrimSpace(session.PaymentIntentID)
	if transactionID == "" {
		transactionID = session.ID
	}

	updated, applied, err := s.repo.MarkApplicationPaid(ctx, applicationID, transactionID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to mark application paid: %w", err)
	}
	if !applied {
		// A concurrent reconciliation won the conditional update between our
		// read and write. Converge on the recorded state.
		log.Printf("level=info component=service flow=confirm_payment outcome=already_paid session_id=%s application_id=%s msg=\"lost transition race\"", sessionRef, applicationID)
		return alreadyPaidConfirmation(updated), nil
	}

	// The provider's confirmed total is authoritative for the reported amount,
	// guarding against drift between session creation and confirmation.
	confirmedAmount := float64(session.AmountTotal) / 100

	if s.eventProducer != nil {
		event := domain.PaymentConfirmedEvent{
			ApplicationID:  updated.ID,
			ScholarshipID:  updated.ScholarshipID,
			ApplicantEmail: updated.ApplicantEmail,
			Amount:         confirmedAmount,
			TransactionID:  transactionID,
			Timestamp:      time.Now().UTC(),
		}
		if pubErr := s.eventProducer.PublishPaymentConfirmedEvent(ctx, event); pubErr != nil {
			log.Printf("level=warn component=service flow=confirm_payment msg=\"payment confirmed event publish failed\" application_id=%s err=%v", updated.ID, pubErr)
		}
	}

	log.Printf("level=info component=service flow=confirm_payment outcome=paid session_id=%s application_id=%s transaction_id=%s amount=%.2f attempts=%d", sessionRef, updated.ID, transactionID, confirmedAmount, updated.PaymentAttempts)
	return &domain.PaymentConfirmation{
		Success:       true,
		Amount:        confirmedAmount,
		TransactionID: transactionID,
	}, nil
}

func alreadyPaidConfirmation(application *domain.Application) *domain.PaymentConfirmation {
	confirmation := &domain.PaymentConfirmation{
		Success:     true,
		AlreadyPaid: true,
		Amount:      application.Amount,
	}
	if application.TransactionID != nil {
		confirmation.TransactionID = *application.TransactionID
	}
	return confirmation
}
