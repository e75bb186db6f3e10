/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the application-service. By defining an interface,
 * we decouple the application's business logic from the specific database implementation
 * (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/scholarhub/application-service/internal/domain"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrScholarshipNotFound = errors.New("scholarship not found")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Application lifecycle methods.
	// CreateApplication persists a new application. Payment status, application
	// status and the attempt counter are forced to their initial values by the
	// implementation regardless of what the caller populated.
	CreateApplication(ctx context.Context, application *domain.Application) error
	FindApplicationByID(ctx context.Context, applicationID uuid.UUID) (*domain.Application, error)
	ListApplicationsByEmail(ctx context.Context, email string) ([]domain.ApplicationSummary, error)
	ListApplications(ctx context.Context, opts domain.ApplicationListOptions) ([]domain.ApplicationSummary, error)

	// MarkApplicationPaid applies the one-way unpaid->paid transition as a single
	// conditional update. It returns the row after the statement and whether this
	// call performed the transition; applied=false means a concurrent reconciler
	// already won and the returned row carries the previously recorded state.
	MarkApplicationPaid(ctx context.Context, applicationID uuid.UUID, transactionID string, paidAt time.Time) (*domain.Application, bool, error)

	// Moderation methods.
	UpdateApplicationStatus(ctx context.Context, applicationID uuid.UUID, status string) error
	UpdateApplicationFeedback(ctx context.Context, applicationID uuid.UUID, feedback string) error
	DeleteApplication(ctx context.Context, applicationID uuid.UUID) error

	// Scholarship lookup (read-only weak reference).
	FindScholarshipByID(ctx context.Context, scholarshipID string) (*domain.Scholarship, error)

	// Aggregate reporting methods.
	TotalFeesCollected(ctx context.Context) (float64, error)
	CountUsers(ctx context.Context) (int64, error)
	CountScholarships(ctx context.Context) (int64, error)
}
