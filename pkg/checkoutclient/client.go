/**
 * @description
 * This package provides a client for interacting with the hosted checkout
 * provider's API. It encapsulates the logic for making authenticated HTTP
 * requests to the provider's endpoints, handling request body construction,
 * and parsing responses.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 *
 * @notes
 * - Amounts cross this boundary as minor-unit integers (amount x 100). The
 *   rest of the service works in major currency units.
 * - Session metadata carries the application identifier so that reconciliation
 *   can recover it without trusting client-supplied values.
 */
package checkoutclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// MetadataApplicationIDKey is the metadata key under which the application
// identifier is embedded in a checkout session.
const MetadataApplicationIDKey = "application_id"

// Client is a client for the checkout provider API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new checkout provider API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateSessionParams describes a hosted checkout session to be created.
type CreateSessionParams struct {
	Currency      string
	AmountMinor   int64
	Description   string
	CustomerEmail string
	Metadata      map[string]string
}

// createSessionRequest is the wire payload for session creation.
type createSessionRequest struct {
	Currency      string            `json:"currency"`
	Amount        int64             `json:"amount"`
	Description   string            `json:"description"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Session is the provider's representation of a checkout session. The same
// shape is returned by both the create and retrieve endpoints; retrieve
// additionally carries the settled payment status and intent reference.
type Session struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	PaymentStatus   string            `json:"payment_status"` // e.g., 'unpaid', 'completed'
	PaymentIntentID string            `json:"payment_intent_id"`
	AmountTotal     int64             `json:"amount_total"` // minor units
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata"`
}

// PaymentStatusCompleted is the provider's terminal paid status for a session.
const PaymentStatusCompleted = "completed"

// ErrorResponse represents an error from the checkout provider API.
type ErrorResponse struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Status string `json:"status"`
	} `json:"errors"`
}

func (e *ErrorResponse) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("checkout api error: %s - %s", e.Errors[0].Title, e.Errors[0].Detail)
	}
	return "unknown checkout api error"
}

// CreateSession asks the provider for a new hosted checkout session and
// returns its redirect URL and identifier.
func (c *Client) CreateSession(ctx context.Context, params CreateSessionParams) (*Session, error) {
	payload := createSessionRequest{
		Currency:      params.Currency,
		Amount:        params.AmountMinor,
		Description:   params.Description,
		CustomerEmail: params.CustomerEmail,
		Metadata:      params.Metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/checkout/sessions", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}
	c.setHeaders(req)

	return c.doSession(req, "create_session")
}

// RetrieveSession fetches a checkout session by its provider-issued reference.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/v1/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieve request: %w", err)
	}
	c.setHeaders(req)

	return c.doSession(req, "retrieve_session")
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
}

// doSession executes a session request and decodes either a Session or an
// ErrorResponse from the body.
func (c *Client) doSession(req *http.Request, op string) (*Session, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s request: %w", op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			log.Printf("level=warn component=checkout_client op=%s status=%d msg=\"non-2xx response (unparsable error body)\"", op, resp.StatusCode)
			return nil, fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		log.Printf("level=warn component=checkout_client op=%s status=%d title=%q detail=%q", op, resp.StatusCode, firstErrorTitle(errResp), firstErrorDetail(errResp))
		return nil, &errResp
	}

	var session Session
	if err := json.Unmarshal(bodyBytes, &session); err != nil {
		return nil, fmt.Errorf("failed to decode success response: %w", err)
	}
	return &session, nil
}

func firstErrorTitle(resp ErrorResponse) string {
	if len(resp.Errors) == 0 {
		return ""
	}
	return resp.Errors[0].Title
}

func firstErrorDetail(resp ErrorResponse) string {
	if len(resp.Errors) == 0 {
		return ""
	}
	return resp.Errors[0].Detail
}
