package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/scholarhub/application-service/internal/app"
	"github.com/scholarhub/application-service/internal/domain"
	"github.com/scholarhub/application-service/internal/store"
	"github.com/scholarhub/application-service/pkg/checkoutclient"
)

type handlerRepoStub struct {
	store.Repository

	application *domain.Application
	scholarship *domain.Scholarship
	statusErr   error
}

func (s *handlerRepoStub) CreateApplication(ctx context.Context, application *domain.Application) error {
	application.PaymentStatus = domain.PaymentStatusUnpaid
	application.Status = domain.ApplicationStatusPending
	return nil
}

func (s *handlerRepoStub) FindApplicationByID(ctx context.Context, applicationID uuid.UUID) (*domain.Application, error) {
	if s.application == nil || s.application.ID != applicationID {
		return nil, store.ErrApplicationNotFound
	}
	copied := *s.application
	return &copied, nil
}

func (s *handlerRepoStub) UpdateApplicationStatus(ctx context.Context, applicationID uuid.UUID, status string) error {
	return s.statusErr
}

func (s *handlerRepoStub) FindScholarshipByID(ctx context.Context, scholarshipID string) (*domain.Scholarship, error) {
	if s.scholarship == nil || s.scholarship.ID != scholarshipID {
		return nil, store.ErrScholarshipNotFound
	}
	copied := *s.scholarship
	return &copied, nil
}

func (s *handlerRepoStub) CountUsers(ctx context.Context) (int64, error) {
	return 3, nil
}

func (s *handlerRepoStub) CountScholarships(ctx context.Context) (int64, error) {
	return 2, nil
}

func (s *handlerRepoStub) TotalFeesCollected(ctx context.Context) (float64, error) {
	return 150, nil
}

type handlerCheckoutStub struct {
	session     *checkoutclient.Session
	retrieveErr error
}

func (c *handlerCheckoutStub) CreateSession(ctx context.Context, params checkoutclient.CreateSessionParams) (*checkoutclient.Session, error) {
	return c.session, nil
}

func (c *handlerCheckoutStub) RetrieveSession(ctx context.Context, sessionID string) (*checkoutclient.Session, error) {
	if c.retrieveErr != nil {
		return nil, c.retrieveErr
	}
	return c.session, nil
}

func newTestHandlers(repo store.Repository, checkout app.CheckoutProvider) *ApplicationHandlers {
	return NewApplicationHandlers(app.NewService(repo, checkout, nil, "usd"))
}

func TestCreateApplicationHandler(t *testing.T) {
	h := newTestHandlers(&handlerRepoStub{}, &handlerCheckoutStub{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid request",
			body:       `{"scholarship_id":"S1","scholarship_name":"Merit Grant","applicant_email":"a@b.com","amount":50}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed json",
			body:       `{"scholarship_id":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing amount",
			body:       `{"scholarship_id":"S1","applicant_email":"a@b.com"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.CreateApplicationHandler(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (body %s)", tc.wantStatus, rec.Code, rec.Body.String())
			}
			if tc.wantStatus == http.StatusCreated {
				var resp struct {
					ApplicationID string `json:"application_id"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if _, err := uuid.Parse(resp.ApplicationID); err != nil {
					t.Fatalf("expected a uuid application_id, got %q", resp.ApplicationID)
				}
			}
		})
	}
}

func TestConfirmPaymentHandler_StatusMapping(t *testing.T) {
	application := &domain.Application{
		ID:            uuid.New(),
		ScholarshipID: "S1",
		Amount:        50,
		PaymentStatus: domain.PaymentStatusUnpaid,
		Status:        domain.ApplicationStatusPending,
	}
	completed := &checkoutclient.Session{
		ID:            "cs_1",
		PaymentStatus: checkoutclient.PaymentStatusCompleted,
		AmountTotal:   5000,
		Metadata:      map[string]string{checkoutclient.MetadataApplicationIDKey: application.ID.String()},
	}
	orphaned := &checkoutclient.Session{
		ID:            "cs_2",
		PaymentStatus: checkoutclient.PaymentStatusCompleted,
		AmountTotal:   5000,
		Metadata:      map[string]string{},
	}
	unmatched := &checkoutclient.Session{
		ID:            "cs_3",
		PaymentStatus: checkoutclient.PaymentStatusCompleted,
		AmountTotal:   5000,
		Metadata:      map[string]string{checkoutclient.MetadataApplicationIDKey: uuid.NewString()},
	}

	tests := []struct {
		name       string
		body       string
		checkout   *handlerCheckoutStub
		wantStatus int
	}{
		{
			name:       "missing session reference",
			body:       `{"session_id":""}`,
			checkout:   &handlerCheckoutStub{session: completed},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "provider unreachable",
			body:       `{"session_id":"cs_1"}`,
			checkout:   &handlerCheckoutStub{retrieveErr: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "session without application binding",
			body:       `{"session_id":"cs_2"}`,
			checkout:   &handlerCheckoutStub{session: orphaned},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "session bound to unknown application",
			body:       `{"session_id":"cs_3"}`,
			checkout:   &handlerCheckoutStub{session: unmatched},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandlers(&handlerRepoStub{application: application}, tc.checkout)
			req := httptest.NewRequest(http.MethodPost, "/payments/confirm", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ConfirmPaymentHandler(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (body %s)", tc.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestConfirmPaymentHandler_NotCompletedIsOK(t *testing.T) {
	application := &domain.Application{
		ID:            uuid.New(),
		Amount:        50,
		PaymentStatus: domain.PaymentStatusUnpaid,
		Status:        domain.ApplicationStatusPending,
	}
	pendingSession := &checkoutclient.Session{
		ID:            "cs_1",
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{checkoutclient.MetadataApplicationIDKey: application.ID.String()},
	}
	h := newTestHandlers(&handlerRepoStub{application: application}, &handlerCheckoutStub{session: pendingSession})

	req := httptest.NewRequest(http.MethodPost, "/payments/confirm", strings.NewReader(`{"session_id":"cs_1"}`))
	rec := httptest.NewRecorder()
	h.ConfirmPaymentHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for incomplete payment, got %d (body %s)", rec.Code, rec.Body.String())
	}
	var confirmation domain.PaymentConfirmation
	if err := json.Unmarshal(rec.Body.Bytes(), &confirmation); err != nil {
		t.Fatalf("failed to decode confirmation: %v", err)
	}
	if confirmation.Success {
		t.Fatal("expected success=false for incomplete payment")
	}
	if confirmation.ProviderStatus != "unpaid" {
		t.Fatalf("expected provider status to surface, got %q", confirmation.ProviderStatus)
	}
}

func TestSetApplicationStatusHandler(t *testing.T) {
	h := newTestHandlers(&handlerRepoStub{}, &handlerCheckoutStub{})
	r := chi.NewRouter()
	r.Patch("/applications/{id}/status", h.SetApplicationStatusHandler)

	tests := []struct {
		name       string
		id         string
		body       string
		wantStatus int
	}{
		{
			name:       "accepted moderation status",
			id:         uuid.NewString(),
			body:       `{"status":"processing"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "payment-owned status rejected",
			id:         uuid.NewString(),
			body:       `{"status":"submitted"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed application id",
			id:         "not-a-uuid",
			body:       `{"status":"processing"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/applications/"+tc.id+"/status", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (body %s)", tc.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetScholarshipHandler(t *testing.T) {
	repo := &handlerRepoStub{
		scholarship: &domain.Scholarship{ID: "S1", Name: "Merit Grant", ApplicationFee: 50},
	}
	h := newTestHandlers(repo, &handlerCheckoutStub{})
	r := chi.NewRouter()
	r.Get("/scholarships/{id}", h.GetScholarshipHandler)

	req := httptest.NewRequest(http.MethodGet, "/scholarships/S1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	var scholarship domain.Scholarship
	if err := json.Unmarshal(rec.Body.Bytes(), &scholarship); err != nil {
		t.Fatalf("failed to decode scholarship: %v", err)
	}
	if scholarship.ID != "S1" || scholarship.ApplicationFee != 50 {
		t.Fatalf("unexpected scholarship: %+v", scholarship)
	}

	req = httptest.NewRequest(http.MethodGet, "/scholarships/S2", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown scholarship, got %d", rec.Code)
	}
}

func TestStatsHandler(t *testing.T) {
	h := newTestHandlers(&handlerRepoStub{}, &handlerCheckoutStub{})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	h.StatsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats domain.PlatformStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.TotalUsers != 3 || stats.TotalScholarships != 2 || stats.TotalFeesCollected != 150 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
