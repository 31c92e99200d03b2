package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/internal/gateway"
	"github.com/N4thh/homi-nah/internal/service"
)

// Verification key used by the signed test callbacks. Not a real credential.
const testChecksumKey = "checksum-key-1234567890"

// MockResolver returns fixed credentials for any owner
type MockResolver struct {
	creds domain.Credentials
	err   error
}

var _ service.CredentialResolver = (*MockResolver)(nil)

func (m *MockResolver) Resolve(ctx context.Context, ownerID string) (domain.Credentials, error) {
	if m.err != nil {
		return domain.Credentials{}, m.err
	}
	return m.creds, nil
}

func (m *MockResolver) Invalidate(ownerID string) {}

func newWebhookTestHandler() (*WebhookHandler, *MockPaymentService, *MockResolver) {
	mockSvc := NewMockPaymentService()
	resolver := &MockResolver{creds: domain.Credentials{
		ClientID:    "client-12345",
		APIKey:      "api-key-1234567890",
		ChecksumKey: testChecksumKey,
	}}
	h := NewWebhookHandler(mockSvc, resolver, gateway.NewMockFactory(nil))
	return h, mockSvc, resolver
}

func setupWebhookRouter(h *WebhookHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/gateway", h.HandleGatewayWebhook)
	return router
}

// signedWebhookRequest marshals fields and signs the body the way the
// provider does, with the owner's checksum key
func signedWebhookRequest(t *testing.T, fields map[string]interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to marshal webhook body: %v", err)
	}
	req, _ := http.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, gateway.Sign(fields, testChecksumKey))
	return req
}

func TestWebhookHandler_AppliesVerifiedEvent(t *testing.T) {
	h, mockSvc, _ := newWebhookTestHandler()
	payment := newTestPayment(t, "payment-1", 4221)
	mockSvc.AddPayment(payment)
	router := setupWebhookRouter(h)

	req := signedWebhookRequest(t, map[string]interface{}{
		"orderCode": 4221,
		"status":    "PAID",
		"transId":   "txn-88",
		"amount":    500000,
	})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if payment.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected payment to succeed, got %s", payment.Status)
	}
	if len(mockSvc.applied) != 1 {
		t.Fatalf("expected 1 applied event, got %d", len(mockSvc.applied))
	}
	if mockSvc.applied[0].TransactionID != "txn-88" {
		t.Errorf("expected transaction id txn-88, got %s", mockSvc.applied[0].TransactionID)
	}
	if !strings.Contains(resp.Body.String(), `"success":true`) {
		t.Errorf("expected ack body, got %s", resp.Body.String())
	}
}

func TestWebhookHandler_MissingSignature(t *testing.T) {
	h, mockSvc, _ := newWebhookTestHandler()
	mockSvc.AddPayment(newTestPayment(t, "payment-1", 4221))
	router := setupWebhookRouter(h)

	body, _ := json.Marshal(map[string]interface{}{"orderCode": 4221, "status": "PAID"})
	req, _ := http.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(mockSvc.applied) != 0 {
		t.Errorf("expected no applied events, got %d", len(mockSvc.applied))
	}
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	h, mockSvc, _ := newWebhookTestHandler()
	payment := newTestPayment(t, "payment-1", 4221)
	mockSvc.AddPayment(payment)
	router := setupWebhookRouter(h)

	body, _ := json.Marshal(map[string]interface{}{"orderCode": 4221, "status": "PAID"})
	req, _ := http.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, "deadbeef")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if payment.Status != domain.PaymentStatusPending {
		t.Errorf("expected payment untouched, got %s", payment.Status)
	}
	if len(mockSvc.applied) != 0 {
		t.Errorf("expected no applied events, got %d", len(mockSvc.applied))
	}
}

func TestWebhookHandler_TamperedBody(t *testing.T) {
	h, mockSvc, _ := newWebhookTestHandler()
	mockSvc.AddPayment(newTestPayment(t, "payment-1", 4221))
	router := setupWebhookRouter(h)

	// Sign one amount, deliver another
	signature := gateway.Sign(map[string]interface{}{
		"orderCode": 4221,
		"status":    "PAID",
		"amount":    500000,
	}, testChecksumKey)
	body, _ := json.Marshal(map[string]interface{}{
		"orderCode": 4221,
		"status":    "PAID",
		"amount":    999999,
	})
	req, _ := http.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(mockSvc.applied) != 0 {
		t.Errorf("expected no applied events, got %d", len(mockSvc.applied))
	}
}

func TestWebhookHandler_MalformedPayload(t *testing.T) {
	h, _, _ := newWebhookTestHandler()
	router := setupWebhookRouter(h)

	req, _ := http.NewRequest(http.MethodPost, "/webhooks/gateway", strings.NewReader("{bad"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, "deadbeef")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestWebhookHandler_MissingOrderCode(t *testing.T) {
	h, _, _ := newWebhookTestHandler()
	router := setupWebhookRouter(h)

	req := signedWebhookRequest(t, map[string]interface{}{"status": "PAID"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestWebhookHandler_UnknownOrderCode(t *testing.T) {
	h, _, _ := newWebhookTestHandler()
	router := setupWebhookRouter(h)

	req := signedWebhookRequest(t, map[string]interface{}{"orderCode": 999, "status": "PAID"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestWebhookHandler_OwnerConfigUnavailable(t *testing.T) {
	tests := []struct {
		name       string
		resolveErr error
		wantStatus int
	}{
		{
			name:       "config deactivated",
			resolveErr: domain.ErrConfigInactive,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "config missing",
			resolveErr: domain.ErrConfigNotFound,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "resolver outage",
			resolveErr: errors.New("database down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mockSvc, resolver := newWebhookTestHandler()
			resolver.err = tt.resolveErr
			mockSvc.AddPayment(newTestPayment(t, "payment-1", 4221))
			router := setupWebhookRouter(h)

			req := signedWebhookRequest(t, map[string]interface{}{"orderCode": 4221, "status": "PAID"})
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, resp.Code, resp.Body.String())
			}
			if len(mockSvc.applied) != 0 {
				t.Errorf("expected no applied events, got %d", len(mockSvc.applied))
			}
		})
	}
}

func TestWebhookHandler_ProcessingFailureTriggersRetry(t *testing.T) {
	h, mockSvc, _ := newWebhookTestHandler()
	mockSvc.AddPayment(newTestPayment(t, "payment-1", 4221))
	mockSvc.applyErr = errors.New("database down")
	router := setupWebhookRouter(h)

	req := signedWebhookRequest(t, map[string]interface{}{"orderCode": 4221, "status": "PAID"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500 so the gateway retries, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestWebhookHandler_ReplayIsAcknowledged(t *testing.T) {
	h, mockSvc, _ := newWebhookTestHandler()
	paid := newTestPayment(t, "payment-1", 4221)
	if err := paid.MarkSuccess("txn-88"); err != nil {
		t.Fatalf("failed to mark success: %v", err)
	}
	mockSvc.AddPayment(paid)
	router := setupWebhookRouter(h)

	req := signedWebhookRequest(t, map[string]interface{}{
		"orderCode": 4221,
		"status":    "PAID",
		"transId":   "txn-88",
	})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 on replay, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"status":"success"`) {
		t.Errorf("expected settled status in ack, got %s", resp.Body.String())
	}
}
