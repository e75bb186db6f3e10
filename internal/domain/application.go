/**
 * @description
 * This file defines the core domain models for the application-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Using distinct types for API requests, database models, and external service
 *   payloads ensures clear separation of concerns and type safety.
 * - The application fee is stored in major currency units (e.g. 50.00 USD);
 *   conversion to the checkout provider's minor-unit integer representation
 *   happens exclusively at the checkout client boundary.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment status values for an application. The transition is strictly one-way.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Application status values. "pending" and "submitted" are owned by the
// payment lifecycle; the remaining states are set by moderators and never
// revert to an earlier state.
const (
	ApplicationStatusPending    = "pending"
	ApplicationStatusSubmitted  = "submitted"
	ApplicationStatusProcessing = "processing"
	ApplicationStatusCompleted  = "completed"
	ApplicationStatusRejected   = "rejected"
)

// Application represents a student's scholarship application and its fee
// obligation. This struct maps directly to the `applications` table.
type Application struct {
	ID              uuid.UUID  `json:"id"`
	ScholarshipID   string     `json:"scholarship_id"`
	ScholarshipName string     `json:"scholarship_name"`
	ApplicantEmail  string     `json:"applicant_email"`
	ApplicantName   string     `json:"applicant_name,omitempty"`
	Amount          float64    `json:"amount"`
	PaymentStatus   string     `json:"payment_status"` // 'unpaid', 'paid'
	Status          string     `json:"status"`         // 'pending', 'submitted', 'processing', 'completed', 'rejected'
	PaymentAttempts int        `json:"payment_attempts"`
	TransactionID   *string    `json:"transaction_id,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	Feedback        *string    `json:"feedback,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ApplicationSummary is an application row enriched with scholarship display
// fields via a join on scholarship_id. Used by applicant and moderator listings.
type ApplicationSummary struct {
	Application
	UniversityName     *string `json:"university_name,omitempty"`
	UniversityLocation *string `json:"university_location,omitempty"`
	SubjectCategory    *string `json:"subject_category,omitempty"`
	Degree             *string `json:"degree,omitempty"`
}

// Scholarship is the read-only view of a scholarship referenced by an
// application. The service never mutates scholarships.
type Scholarship struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	UniversityName     string  `json:"university_name"`
	UniversityLocation string  `json:"university_location"`
	SubjectCategory    string  `json:"subject_category"`
	Degree             string  `json:"degree"`
	ApplicationFee     float64 `json:"application_fee"`
}

// CreateApplicationRequest is the DTO for incoming application creation calls.
// Status fields are intentionally absent: the store forces unpaid/pending.
type CreateApplicationRequest struct {
	ScholarshipID   string  `json:"scholarship_id"`
	ScholarshipName string  `json:"scholarship_name"`
	ApplicantEmail  string  `json:"applicant_email"`
	ApplicantName   string  `json:"applicant_name,omitempty"`
	Amount          float64 `json:"amount"`
}

// InitiateCheckoutRequest is the DTO for checkout-session initiation calls.
// The amount is deliberately not part of this payload; it is always read from
// the stored application.
type InitiateCheckoutRequest struct {
	ApplicationID string `json:"application_id"`
	PayerEmail    string `json:"payer_email"`
}

// ConfirmPaymentRequest carries the provider-issued session reference used to
// reconcile an asynchronous payment.
type ConfirmPaymentRequest struct {
	SessionID string `json:"session_id"`
}

// PaymentConfirmation is the outcome of a reconciliation call.
//
// Success=false with a ProviderStatus means the session exists but the
// provider has not yet marked it completed; it is a valid intermediate state,
// not an error, and the caller may retry later.
type PaymentConfirmation struct {
	Success        bool    `json:"success"`
	AlreadyPaid    bool    `json:"already_paid,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	TransactionID  string  `json:"transaction_id,omitempty"`
	ProviderStatus string  `json:"provider_status,omitempty"`
}

// ApplicationListOptions controls pagination for moderator listings.
type ApplicationListOptions struct {
	Limit  int
	Offset int
}

// PlatformStats is the derived, read-only aggregate view. It must never be
// treated as a source of truth; it is recomputed on demand from stored rows.
type PlatformStats struct {
	TotalUsers         int64   `json:"total_users"`
	TotalScholarships  int64   `json:"total_scholarships"`
	TotalFeesCollected float64 `json:"total_fees_collected"`
}

// PaymentConfirmedEvent is the message payload published after a successful
// unpaid->paid transition.
type PaymentConfirmedEvent struct {
	ApplicationID  uuid.UUID `json:"application_id"`
	ScholarshipID  string    `json:"scholarship_id"`
	ApplicantEmail string    `json:"applicant_email"`
	Amount         float64   `json:"amount"`
	TransactionID  string    `json:"transaction_id"`
	Timestamp      time.Time `json:"timestamp"`
}
