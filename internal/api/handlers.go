/**
 * @description
 * This file contains the HTTP handlers for the application-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/scholarhub/application-service/internal/app"
	"github.com/scholarhub/application-service/internal/domain"
	"github.com/scholarhub/application-service/internal/store"
)

// ApplicationHandlers holds the application service that handlers will use.
type ApplicationHandlers struct {
	service *app.Service
}

// NewApplicationHandlers creates a new instance of ApplicationHandlers.
func NewApplicationHandlers(service *app.Service) *ApplicationHandlers {
	return &ApplicationHandlers{service: service}
}

type createApplicationResponse struct {
	ApplicationID string `json:"application_id"`
}

type initiateCheckoutResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *ApplicationHandlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func (h *ApplicationHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func (h *ApplicationHandlers) writeServiceError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, app.ErrMissingScholarshipID),
		errors.Is(err, app.ErrMissingApplicantEmail),
		errors.Is(err, app.ErrInvalidApplicationAmount),
		errors.Is(err, app.ErrMissingApplicationID),
		errors.Is(err, app.ErrMissingPayerEmail),
		errors.Is(err, app.ErrMissingSessionReference),
		errors.Is(err, app.ErrInvalidApplicationStatus),
		errors.Is(err, app.ErrEmptyFeedback):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrApplicationNotFound), errors.Is(err, store.ErrScholarshipNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrSessionMetadataMissing):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrPaymentVerificationFailed):
		// Transient: the caller may safely retry since verification happens
		// before any mutation.
		h.writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, app.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		log.Printf("level=error component=api endpoint=%s msg=\"unhandled service error\" err=%v", endpoint, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// CreateApplicationHandler handles requests to create a new application.
func (h *ApplicationHandlers) CreateApplicationHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_application outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	application, err := h.service.CreateApplication(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "create_application", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, createApplicationResponse{ApplicationID: application.ID.String()})
}

// ListApplicationsHandler returns an applicant's applications, enriched with
// scholarship display fields.
func (h *ApplicationHandlers) ListApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	summaries, err := h.service.ListApplicationsByApplicant(r.Context(), email)
	if err != nil {
		h.writeServiceError(w, "list_applications", err)
		return
	}
	if summaries == nil {
		summaries = []domain.ApplicationSummary{}
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

// GetScholarshipHandler returns the scholarship referenced by an application.
func (h *ApplicationHandlers) GetScholarshipHandler(w http.ResponseWriter, r *http.Request) {
	scholarship, err := h.service.GetScholarship(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "get_scholarship", err)
		return
	}
	h.writeJSON(w, http.StatusOK, scholarship)
}

// InitiateCheckoutHandler handles requests to create a hosted checkout session
// for an application.
func (h *ApplicationHandlers) InitiateCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.InitiateCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=initiate_checkout outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	redirectURL, err := h.service.InitiateCheckout(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "initiate_checkout", err)
		return
	}

	h.writeJSON(w, http.StatusOK, initiateCheckoutResponse{URL: redirectURL})
}

// ConfirmPaymentHandler reconciles a checkout session against the stored
// application state. Repeated calls with the same session reference are safe.
func (h *ApplicationHandlers) ConfirmPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=confirm_payment outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	confirmation, err := h.service.ConfirmPayment(r.Context(), req.SessionID)
	if err != nil {
		h.writeServiceError(w, "confirm_payment", err)
		return
	}

	h.writeJSON(w, http.StatusOK, confirmation)
}

// applicationIDFromURL parses the {id} route parameter.
func applicationIDFromURL(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// ListAllApplicationsHandler returns a page of all applications for moderators.
func (h *ApplicationHandlers) ListAllApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	summaries, err := h.service.ListApplications(r.Context(), domain.ApplicationListOptions{Limit: limit, Offset: offset})
	if err != nil {
		h.writeServiceError(w, "list_all_applications", err)
		return
	}
	if summaries == nil {
		summaries = []domain.ApplicationSummary{}
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetApplicationStatusHandler applies a moderator status transition.
func (h *ApplicationHandlers) SetApplicationStatusHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, err := applicationIDFromURL(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid application id")
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := h.service.SetApplicationStatus(r.Context(), applicationID, req.Status); err != nil {
		h.writeServiceError(w, "set_application_status", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

type setFeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// SetFeedbackHandler records moderator feedback on an application.
func (h *ApplicationHandlers) SetFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, err := applicationIDFromURL(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid application id")
		return
	}

	var req setFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := h.service.SetFeedback(r.Context(), applicationID, req.Feedback); err != nil {
		h.writeServiceError(w, "set_feedback", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Feedback recorded"})
}

// DeleteApplicationHandler removes an application permanently.
func (h *ApplicationHandlers) DeleteApplicationHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, err := applicationIDFromURL(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid application id")
		return
	}

	if err := h.service.RemoveApplication(r.Context(), applicationID); err != nil {
		h.writeServiceError(w, "delete_application", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Application removed"})
}

// StatsHandler returns the on-demand platform aggregates.
func (h *ApplicationHandlers) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.AggregateStats(r.Context())
	if err != nil {
		h.writeServiceError(w, "stats", err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}
