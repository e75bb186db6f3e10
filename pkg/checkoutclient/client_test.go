package checkoutclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateSession_SendsAuthorizedRequest(t *testing.T) {
	var gotAuth, gotPath, gotMethod string
	var gotPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Session{
			ID:  "cs_123",
			URL: "https://checkout.example.com/cs_123",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_abc")
	session, err := client.CreateSession(context.Background(), CreateSessionParams{
		Currency:      "usd",
		AmountMinor:   5000,
		Description:   "Merit Grant",
		CustomerEmail: "payer@example.com",
		Metadata:      map[string]string{MetadataApplicationIDKey: "app-1"},
	})
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/v1/checkout/sessions" {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotPath)
	}
	if gotAuth != "Bearer sk_test_abc" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if gotPayload["amount"] != float64(5000) {
		t.Fatalf("expected amount 5000 on the wire, got %v", gotPayload["amount"])
	}
	if gotPayload["currency"] != "usd" {
		t.Fatalf("expected currency usd on the wire, got %v", gotPayload["currency"])
	}
	if session.ID != "cs_123" || session.URL != "https://checkout.example.com/cs_123" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestRetrieveSession_DecodesSettledSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions/cs_123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Session{
			ID:              "cs_123",
			PaymentStatus:   PaymentStatusCompleted,
			PaymentIntentID: "pi_456",
			AmountTotal:     5000,
			Currency:        "usd",
			Metadata:        map[string]string{MetadataApplicationIDKey: "app-1"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_abc")
	session, err := client.RetrieveSession(context.Background(), "cs_123")
	if err != nil {
		t.Fatalf("RetrieveSession returned error: %v", err)
	}
	if session.PaymentStatus != PaymentStatusCompleted {
		t.Fatalf("expected completed status, got %q", session.PaymentStatus)
	}
	if session.PaymentIntentID != "pi_456" || session.AmountTotal != 5000 {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.Metadata[MetadataApplicationIDKey] != "app-1" {
		t.Fatalf("expected metadata to round-trip, got %v", session.Metadata)
	}
}

func TestRetrieveSession_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":[{"title":"Not Found","detail":"no such session","status":"404"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_abc")
	_, err := client.RetrieveSession(context.Background(), "cs_missing")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	var apiErr *ErrorResponse
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *ErrorResponse, got %T (%v)", err, err)
	}
	if len(apiErr.Errors) != 1 || apiErr.Errors[0].Title != "Not Found" {
		t.Fatalf("unexpected decoded error: %+v", apiErr)
	}
}

func TestRetrieveSession_UnparsableErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_abc")
	if _, err := client.RetrieveSession(context.Background(), "cs_123"); err == nil {
		t.Fatal("expected error for unparsable 502 body")
	}
}
