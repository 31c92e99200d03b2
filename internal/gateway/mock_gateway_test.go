package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/N4thh/homi-nah/internal/domain"
)

func testCredentials() domain.Credentials {
	return domain.Credentials{
		ClientID:    "client-12345",
		APIKey:      "api-key-12345",
		ChecksumKey: testChecksumKey,
	}
}

func newMockForTest(cfg *MockConfig) (*MockFactory, Gateway) {
	f := NewMockFactory(cfg)
	return f, f.New(testCredentials())
}

func TestNewMockFactory(t *testing.T) {
	_, gw := newMockForTest(nil)
	if gw == nil {
		t.Fatal("Expected non-nil gateway")
	}

	if gw.Name() != "mock" {
		t.Errorf("Expected name 'mock', got '%s'", gw.Name())
	}
}

func TestNewMockFactory_ClampsSuccessRate(t *testing.T) {
	f := NewMockFactory(&MockConfig{SuccessRate: 1.5})
	if f.config.SuccessRate != 1.0 {
		t.Errorf("Expected success rate 1.0, got %f", f.config.SuccessRate)
	}

	f = NewMockFactory(&MockConfig{SuccessRate: -0.5})
	if f.config.SuccessRate != 0.0 {
		t.Errorf("Expected success rate 0.0, got %f", f.config.SuccessRate)
	}
}

func TestMockGateway_CreateLink_Success(t *testing.T) {
	_, gw := newMockForTest(&MockConfig{SuccessRate: 1.0})

	ctx := context.Background()
	req := &CreateLinkRequest{
		OrderCode:   1755000000123001,
		Amount:      500000,
		Description: "Booking BK-42",
		ReturnURL:   "https://app.example.com/return",
		CancelURL:   "https://app.example.com/cancel",
	}

	link, err := gw.CreateLink(ctx, req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.HasPrefix(link.PaymentLinkID, "mock_link_") {
		t.Errorf("Expected mock_link_ prefix, got '%s'", link.PaymentLinkID)
	}

	if link.OrderCode != req.OrderCode {
		t.Errorf("Expected order code %d, got %d", req.OrderCode, link.OrderCode)
	}

	if link.CheckoutURL == "" {
		t.Error("Expected checkout URL")
	}

	if link.QRCode == "" {
		t.Error("Expected QR code")
	}

	if link.Status != "PENDING" {
		t.Errorf("Expected status 'PENDING', got '%s'", link.Status)
	}

	if link.BIN != "970422" {
		t.Errorf("Expected BIN '970422', got '%s'", link.BIN)
	}
}

func TestMockGateway_CreateLink_Failure(t *testing.T) {
	_, gw := newMockForTest(&MockConfig{SuccessRate: 0.0})

	ctx := context.Background()
	req := &CreateLinkRequest{OrderCode: 1755000000123002, Amount: 500000, Description: "Booking"}

	_, err := gw.CreateLink(ctx, req)
	if err == nil {
		t.Fatal("Expected error at zero success rate")
	}

	if !domain.IsGatewayError(err) {
		t.Errorf("Expected gateway error, got %v", err)
	}

	if domain.IsGatewayTransient(err) {
		t.Error("Expected declined link creation to be permanent")
	}
}

func TestMockGateway_CreateLink_NilRequest(t *testing.T) {
	_, gw := newMockForTest(nil)

	_, err := gw.CreateLink(context.Background(), nil)
	if err == nil {
		t.Error("Expected error for nil request")
	}
}

func TestMockGateway_GetStatus(t *testing.T) {
	_, gw := newMockForTest(nil)

	ctx := context.Background()
	req := &CreateLinkRequest{OrderCode: 1755000000123003, Amount: 750000, Description: "Booking"}

	if _, err := gw.CreateLink(ctx, req); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	info, err := gw.GetStatus(ctx, req.OrderCode)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if info.Status != "PENDING" {
		t.Errorf("Expected status 'PENDING', got '%s'", info.Status)
	}

	if info.Class != StatusPending {
		t.Errorf("Expected class '%s', got '%s'", StatusPending, info.Class)
	}

	if info.Amount != 750000 {
		t.Errorf("Expected amount 750000, got %d", info.Amount)
	}
}

func TestMockGateway_GetStatus_NotFound(t *testing.T) {
	_, gw := newMockForTest(nil)

	_, err := gw.GetStatus(context.Background(), 999)
	if err == nil {
		t.Error("Expected error for unknown order code")
	}
}

func TestMockGateway_Cancel(t *testing.T) {
	_, gw := newMockForTest(nil)

	ctx := context.Background()
	req := &CreateLinkRequest{OrderCode: 1755000000123004, Amount: 500000, Description: "Booking"}

	if _, err := gw.CreateLink(ctx, req); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := gw.Cancel(ctx, req.OrderCode, "renter changed plans"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	info, err := gw.GetStatus(ctx, req.OrderCode)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if info.Status != "CANCELLED" {
		t.Errorf("Expected status 'CANCELLED', got '%s'", info.Status)
	}

	if info.Class != StatusFailed {
		t.Errorf("Expected class '%s', got '%s'", StatusFailed, info.Class)
	}
}

func TestMockGateway_Cancel_NotFound(t *testing.T) {
	_, gw := newMockForTest(nil)

	err := gw.Cancel(context.Background(), 999, "whatever")
	if err == nil {
		t.Error("Expected error for unknown order code")
	}
}

func TestMockFactory_SetStatus(t *testing.T) {
	f, gw := newMockForTest(nil)

	ctx := context.Background()
	req := &CreateLinkRequest{OrderCode: 1755000000123005, Amount: 500000, Description: "Booking"}

	if _, err := gw.CreateLink(ctx, req); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !f.SetStatus(req.OrderCode, "PAID") {
		t.Fatal("Expected SetStatus to find the link")
	}

	info, err := gw.GetStatus(ctx, req.OrderCode)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if info.Class != StatusSuccess {
		t.Errorf("Expected class '%s', got '%s'", StatusSuccess, info.Class)
	}

	if info.AmountPaid != 500000 {
		t.Errorf("Expected amount paid 500000, got %d", info.AmountPaid)
	}

	if info.TransactionID == "" {
		t.Error("Expected transaction ID for paid link")
	}

	if f.SetStatus(999, "PAID") {
		t.Error("Expected SetStatus to report unknown order code")
	}
}

func TestMockFactory_SharedStore(t *testing.T) {
	f := NewMockFactory(nil)
	first := f.New(testCredentials())
	second := f.New(domain.Credentials{
		ClientID:    "other-12345",
		APIKey:      "other-api-key",
		ChecksumKey: "other-checksum-key",
	})

	ctx := context.Background()
	req := &CreateLinkRequest{OrderCode: 1755000000123006, Amount: 500000, Description: "Booking"}

	if _, err := first.CreateLink(ctx, req); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := second.GetStatus(ctx, req.OrderCode); err != nil {
		t.Errorf("Expected link visible across clients, got %v", err)
	}
}

func TestMockGateway_VerifySignature(t *testing.T) {
	_, gw := newMockForTest(nil)

	data := map[string]any{"orderCode": int64(123), "status": "PAID"}
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := gw.VerifySignature(payload, Sign(data, testChecksumKey)); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if err := gw.VerifySignature(payload, Sign(data, "wrong-key")); err == nil {
		t.Error("Expected error for signature from wrong key")
	}
}

func TestNewFactory_PayOS(t *testing.T) {
	f, err := NewFactory("payos", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := f.New(testCredentials()).Name(); got != "payos" {
		t.Errorf("Expected name 'payos', got '%s'", got)
	}
}

func TestNewFactory_Empty(t *testing.T) {
	f, err := NewFactory("", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := f.New(testCredentials()).Name(); got != "payos" {
		t.Errorf("Expected default to payos, got '%s'", got)
	}
}

func TestNewFactory_Mock(t *testing.T) {
	f, err := NewFactory("mock", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := f.New(testCredentials()).Name(); got != "mock" {
		t.Errorf("Expected name 'mock', got '%s'", got)
	}
}

func TestNewFactory_Unknown(t *testing.T) {
	_, err := NewFactory("paypal", nil)
	if err == nil {
		t.Error("Expected error for unknown provider")
	}
}
