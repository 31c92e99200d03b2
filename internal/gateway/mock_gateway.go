package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/N4thh/homi-nah/internal/domain"
)

// MockConfig holds configuration for the mock gateway
type MockConfig struct {
	// SuccessRate is the probability of successful link creation (0.0 to 1.0)
	SuccessRate float64

	// DelayMs is the simulated provider latency in milliseconds
	DelayMs int
}

// DefaultMockConfig returns default mock configuration
func DefaultMockConfig() *MockConfig {
	return &MockConfig{
		SuccessRate: 1.0,
		DelayMs:     0,
	}
}

// MockFactory builds mock gateways sharing one in-memory link store
type MockFactory struct {
	config *MockConfig
	links  *sync.Map
}

// NewMockFactory creates a mock gateway factory
func NewMockFactory(config *MockConfig) *MockFactory {
	if config == nil {
		config = DefaultMockConfig()
	}
	if config.SuccessRate < 0 {
		config.SuccessRate = 0
	}
	if config.SuccessRate > 1 {
		config.SuccessRate = 1
	}
	return &MockFactory{
		config: config,
		links:  &sync.Map{},
	}
}

// New builds a mock gateway verifying signatures with the given credentials
func (f *MockFactory) New(creds domain.Credentials) Gateway {
	return &MockGateway{config: f.config, creds: creds, links: f.links}
}

// SetStatus overrides the stored status of a payment link (for tests and
// local development; the real provider flips status via webhooks)
func (f *MockFactory) SetStatus(orderCode int64, status string) bool {
	v, ok := f.links.Load(orderCode)
	if !ok {
		return false
	}
	entry := v.(*mockLink)
	entry.mu.Lock()
	entry.status = status
	entry.mu.Unlock()
	return true
}

type mockLink struct {
	mu     sync.Mutex
	link   PaymentLink
	status string
}

// MockGateway implements Gateway against an in-memory store
type MockGateway struct {
	config *MockConfig
	creds  domain.Credentials
	links  *sync.Map
}

// CreateLink creates a mock payment link
func (g *MockGateway) CreateLink(ctx context.Context, req *CreateLinkRequest) (*PaymentLink, error) {
	if req == nil {
		return nil, errors.New("create link request is required")
	}
	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	if rand.Float64() >= g.config.SuccessRate {
		return nil, domain.NewGatewayError("create_link", "20", false,
			errors.New("mock link creation declined"))
	}

	linkID := "mock_link_" + uuid.New().String()[:8]
	link := PaymentLink{
		PaymentLinkID: linkID,
		OrderCode:     req.OrderCode,
		Amount:        req.Amount,
		Status:        "PENDING",
		CheckoutURL:   fmt.Sprintf("https://mock.pay.local/web/%s", linkID),
		QRCode:        fmt.Sprintf("00020101021238570010A000000727%d", req.OrderCode),
		BIN:           "970422",
		AccountNumber: "0123456789",
		AccountName:   "HOMI SANDBOX",
	}
	g.links.Store(req.OrderCode, &mockLink{link: link, status: "PENDING"})

	out := link
	return &out, nil
}

// GetStatus returns the stored state of a mock payment link
func (g *MockGateway) GetStatus(ctx context.Context, orderCode int64) (*PaymentInfo, error) {
	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	v, ok := g.links.Load(orderCode)
	if !ok {
		return nil, domain.NewGatewayError("get_status", "101", false,
			fmt.Errorf("payment link not found: %d", orderCode))
	}

	entry := v.(*mockLink)
	entry.mu.Lock()
	status := entry.status
	amount := entry.link.Amount
	entry.mu.Unlock()

	info := &PaymentInfo{
		OrderCode: orderCode,
		Status:    status,
		Class:     ClassifyStatus(status),
		Amount:    amount,
	}
	if info.Class == StatusSuccess {
		info.AmountPaid = amount
		info.TransactionID = fmt.Sprintf("mock_txn_%d", orderCode)
	}
	return info, nil
}

// Cancel marks a mock payment link cancelled
func (g *MockGateway) Cancel(ctx context.Context, orderCode int64, reason string) error {
	if err := g.delay(ctx); err != nil {
		return err
	}

	v, ok := g.links.Load(orderCode)
	if !ok {
		return domain.NewGatewayError("cancel", "101", false,
			fmt.Errorf("payment link not found: %d", orderCode))
	}

	entry := v.(*mockLink)
	entry.mu.Lock()
	entry.status = "CANCELLED"
	entry.mu.Unlock()
	return nil
}

// VerifySignature checks a webhook body against its signature header
func (g *MockGateway) VerifySignature(payload []byte, signature string) error {
	return VerifyWebhook(payload, signature, g.creds.ChecksumKey)
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}

func (g *MockGateway) delay(ctx context.Context) error {
	if g.config.DelayMs <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(g.config.DelayMs) * time.Millisecond):
		return nil
	}
}

// NewFactory picks the gateway implementation by provider name
func NewFactory(provider string, cfg *Config) (Factory, error) {
	switch strings.ToLower(provider) {
	case "payos", "":
		return NewHTTPFactory(cfg), nil
	case "mock":
		return NewMockFactory(DefaultMockConfig()), nil
	default:
		return nil, fmt.Errorf("unsupported gateway provider: %s", provider)
	}
}
