/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * related to applications, scholarships, and users.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 *
 * @notes
 * - MarkApplicationPaid is the only write that touches payment state. It is a
 *   single conditional UPDATE so that two concurrent reconcilers for the same
 *   application can never both observe 'unpaid' and both apply the transition.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholarhub/application-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const applicationColumns = `
	id, scholarship_id, scholarship_name, applicant_email, COALESCE(applicant_name, '') AS applicant_name,
	amount, payment_status, status, payment_attempts, transaction_id, paid_at, feedback, created_at, updated_at`

func scanApplication(row pgx.Row, application *domain.Application) error {
	return row.Scan(
		&application.ID, &application.ScholarshipID, &application.ScholarshipName,
		&application.ApplicantEmail, &application.ApplicantName, &application.Amount,
		&application.PaymentStatus, &application.Status, &application.PaymentAttempts,
		&application.TransactionID, &application.PaidAt, &application.Feedback,
		&application.CreatedAt, &application.UpdatedAt,
	)
}

// CreateApplication inserts a new application row. The initial payment status,
// application status and attempt counter are SQL literals: caller-provided
// values for those fields are never trusted at creation.
func (r *PostgresRepository) CreateApplication(ctx context.Context, application *domain.Application) error {
	if application.ID == uuid.Nil {
		application.ID = uuid.New()
	}
	query := `
		INSERT INTO applications (
			id, scholarship_id, scholarship_name, applicant_email, applicant_name,
			amount, payment_status, status, payment_attempts, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, 'unpaid', 'pending', 0, NOW(), NOW())
		RETURNING payment_status, status, payment_attempts, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		application.ID, application.ScholarshipID, application.ScholarshipName,
		application.ApplicantEmail, application.ApplicantName, application.Amount,
	).Scan(
		&application.PaymentStatus, &application.Status, &application.PaymentAttempts,
		&application.CreatedAt, &application.UpdatedAt,
	)
}

// FindApplicationByID retrieves a single application by its identifier.
func (r *PostgresRepository) FindApplicationByID(ctx context.Context, applicationID uuid.UUID) (*domain.Application, error) {
	var application domain.Application
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	if err := scanApplication(r.db.QueryRow(ctx, query, applicationID), &application); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &application, nil
}

const applicationSummaryQuery = `
	SELECT
		a.id, a.scholarship_id, a.scholarship_name, a.applicant_email,
		COALESCE(a.applicant_name, '') AS applicant_name, a.amount, a.payment_status,
		a.status, a.payment_attempts, a.transaction_id, a.paid_at, a.feedback,
		a.created_at, a.updated_at,
		s.university_name, s.university_location, s.subject_category, s.degree
	FROM applications a
	LEFT JOIN scholarships s ON s.id = a.scholarship_id`

func (r *PostgresRepository) scanApplicationSummaries(rows pgx.Rows) ([]domain.ApplicationSummary, error) {
	defer rows.Close()

	var summaries []domain.ApplicationSummary
	for rows.Next() {
		var item domain.ApplicationSummary
		err := rows.Scan(
			&item.ID, &item.ScholarshipID, &item.ScholarshipName, &item.ApplicantEmail,
			&item.ApplicantName, &item.Amount, &item.PaymentStatus, &item.Status,
			&item.PaymentAttempts, &item.TransactionID, &item.PaidAt, &item.Feedback,
			&item.CreatedAt, &item.UpdatedAt,
			&item.UniversityName, &item.UniversityLocation, &item.SubjectCategory, &item.Degree,
		)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, item)
	}
	return summaries, rows.Err()
}

// ListApplicationsByEmail retrieves an applicant's applications enriched with
// scholarship display fields, newest first.
func (r *PostgresRepository) ListApplicationsByEmail(ctx context.Context, email string) ([]domain.ApplicationSummary, error) {
	query := applicationSummaryQuery + `
	WHERE lower(btrim(a.applicant_email)) = lower(btrim($1))
	ORDER BY a.created_at DESC`
	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	return r.scanApplicationSummaries(rows)
}

// ListApplications retrieves a page of all applications for moderator triage.
func (r *PostgresRepository) ListApplications(ctx context.Context, opts domain.ApplicationListOptions) ([]domain.ApplicationSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := applicationSummaryQuery + `
	ORDER BY a.created_at DESC
	LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.scanApplicationSummaries(rows)
}

// MarkApplicationPaid performs the one-way unpaid->paid transition. The
// WHERE clause on payment_status makes the update conditional: under
// concurrent reconciliation exactly one caller flips the row, increments the
// attempt counter and binds the transaction id. Everyone else falls through
// to the plain read and receives the already-paid state.
func (r *PostgresRepository) MarkApplicationPaid(ctx context.Context, applicationID uuid.UUID, transactionID string, paidAt time.Time) (*domain.Application, bool, error) {
	var application domain.Application
	query := `
		UPDATE applications
		SET
			payment_status = 'paid',
			status = 'submitted',
			transaction_id = $2,
			paid_at = $3,
			payment_attempts = payment_attempts + 1,
			updated_at = NOW()
		WHERE id = $1 AND payment_status = 'unpaid'
		RETURNING ` + applicationColumns
	err := scanApplication(r.db.QueryRow(ctx, query, applicationID, transactionID, paidAt), &application)
	if err == nil {
		return &application, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, err
	}

	// No row matched: either the application does not exist or it is already
	// paid. Distinguish with a plain read.
	current, err := r.FindApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// UpdateApplicationStatus sets the moderation status for an application.
// Status validation happens in the service layer.
func (r *PostgresRepository) UpdateApplicationStatus(ctx context.Context, applicationID uuid.UUID, status string) error {
	query := `UPDATE applications SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, applicationID, status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// UpdateApplicationFeedback records moderator feedback on an application.
func (r *PostgresRepository) UpdateApplicationFeedback(ctx context.Context, applicationID uuid.UUID, feedback string) error {
	query := `UPDATE applications SET feedback = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, applicationID, feedback)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// DeleteApplication removes an application permanently. This is an
// administrative operation and is irreversible.
func (r *PostgresRepository) DeleteApplication(ctx context.Context, applicationID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM applications WHERE id = $1`, applicationID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// FindScholarshipByID retrieves a scholarship by its identifier.
func (r *PostgresRepository) FindScholarshipByID(ctx context.Context, scholarshipID string) (*domain.Scholarship, error) {
	var scholarship domain.Scholarship
	query := `
		SELECT id, name, university_name, university_location, subject_category, degree, application_fee
		FROM scholarships
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, scholarshipID).Scan(
		&scholarship.ID, &scholarship.Name, &scholarship.UniversityName,
		&scholarship.UniversityLocation, &scholarship.SubjectCategory,
		&scholarship.Degree, &scholarship.ApplicationFee,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrScholarshipNotFound
		}
		return nil, err
	}
	return &scholarship, nil
}

// TotalFeesCollected sums the amount over all paid applications. This is an
// on-demand projection, never a maintained materialized value.
func (r *PostgresRepository) TotalFeesCollected(ctx context.Context) (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(amount), 0) FROM applications WHERE payment_status = 'paid'`
	if err := r.db.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// CountUsers returns the total number of registered users.
func (r *PostgresRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CountScholarships returns the total number of scholarships in the catalog.
func (r *PostgresRepository) CountScholarships(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM scholarships`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
