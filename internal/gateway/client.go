package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/pkg/retry"
)

const (
	defaultBaseURL = "https://api-merchant.payos.vn"

	// successCode is the provider's code for an accepted request
	successCode = "00"

	maxResponseBytes = 1 << 20
)

// Config holds settings for the HTTP gateway client
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxRetries     int
}

// DefaultConfig returns default gateway client settings
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        defaultBaseURL,
		RequestTimeout: 10 * time.Second,
		MaxRetries:     3,
	}
}

// HTTPFactory builds per-credential clients sharing one HTTP transport
type HTTPFactory struct {
	baseURL  string
	client   *http.Client
	retryCfg *retry.Config
}

// NewHTTPFactory creates a factory for the provider's REST API
func NewHTTPFactory(cfg *Config) *HTTPFactory {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFactory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		retryCfg: &retry.Config{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		},
	}
}

// New builds a gateway client signing with the given credentials
func (f *HTTPFactory) New(creds domain.Credentials) Gateway {
	return &Client{
		baseURL:    f.baseURL,
		httpClient: f.client,
		creds:      creds,
		retrier:    retry.New(f.retryCfg),
	}
}

// Client calls the provider's REST API on behalf of one owner
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      domain.Credentials
	retrier    *retry.Retrier
}

type apiResponse struct {
	Code      string          `json:"code"`
	Desc      string          `json:"desc"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

type createLinkBody struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	CancelURL   string `json:"cancelUrl"`
	ReturnURL   string `json:"returnUrl"`
	Signature   string `json:"signature"`
	Items       []Item `json:"items,omitempty"`
}

type linkData struct {
	BIN           string `json:"bin"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	Amount        int64  `json:"amount"`
	OrderCode     int64  `json:"orderCode"`
	Currency      string `json:"currency"`
	PaymentLinkID string `json:"paymentLinkId"`
	Status        string `json:"status"`
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
}

type paymentInfoData struct {
	ID              string            `json:"id"`
	OrderCode       int64             `json:"orderCode"`
	Amount          int64             `json:"amount"`
	AmountPaid      int64             `json:"amountPaid"`
	AmountRemaining int64             `json:"amountRemaining"`
	Status          string            `json:"status"`
	Transactions    []transactionData `json:"transactions"`
}

type transactionData struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

type cancelBody struct {
	CancellationReason string `json:"cancellationReason"`
}

// CreateLink registers a payment request and returns checkout artifacts
func (c *Client) CreateLink(ctx context.Context, req *CreateLinkRequest) (*PaymentLink, error) {
	if req == nil {
		return nil, errors.New("create link request is required")
	}

	body := &createLinkBody{
		OrderCode:   req.OrderCode,
		Amount:      req.Amount,
		Description: req.Description,
		CancelURL:   req.CancelURL,
		ReturnURL:   req.ReturnURL,
		Signature:   signCreateLink(req, c.creds.ChecksumKey),
		Items:       req.Items,
	}

	var link *PaymentLink
	result := c.retrier.Do(ctx, func(ctx context.Context) error {
		data, err := c.call(ctx, http.MethodPost, "/v2/payment-requests", body, "create_link")
		if err != nil {
			return err
		}

		var ld linkData
		if err := json.Unmarshal(data, &ld); err != nil {
			return retry.Permanent(domain.NewGatewayError("create_link", "", false,
				fmt.Errorf("malformed link data: %w", err)))
		}
		if ld.CheckoutURL == "" {
			return retry.Permanent(domain.NewGatewayError("create_link", "", false,
				domain.ErrMissingCheckoutURL))
		}

		link = &PaymentLink{
			PaymentLinkID: ld.PaymentLinkID,
			OrderCode:     ld.OrderCode,
			Amount:        ld.Amount,
			Status:        ld.Status,
			CheckoutURL:   ld.CheckoutURL,
			QRCode:        ld.QRCode,
			BIN:           ld.BIN,
			AccountNumber: ld.AccountNumber,
			AccountName:   ld.AccountName,
		}
		return nil
	})
	if err := finalError(result); err != nil {
		return nil, err
	}
	return link, nil
}

// GetStatus fetches the provider's view of a payment request
func (c *Client) GetStatus(ctx context.Context, orderCode int64) (*PaymentInfo, error) {
	path := "/v2/payment-requests/" + strconv.FormatInt(orderCode, 10)

	var info *PaymentInfo
	result := c.retrier.Do(ctx, func(ctx context.Context) error {
		data, err := c.call(ctx, http.MethodGet, path, nil, "get_status")
		if err != nil {
			return err
		}

		var pd paymentInfoData
		if err := json.Unmarshal(data, &pd); err != nil {
			return retry.Permanent(domain.NewGatewayError("get_status", "", false,
				fmt.Errorf("malformed payment data: %w", err)))
		}

		info = &PaymentInfo{
			OrderCode:  pd.OrderCode,
			Status:     pd.Status,
			Class:      ClassifyStatus(pd.Status),
			Amount:     pd.Amount,
			AmountPaid: pd.AmountPaid,
		}
		if n := len(pd.Transactions); n > 0 {
			info.TransactionID = pd.Transactions[n-1].Reference
		}
		return nil
	})
	if err := finalError(result); err != nil {
		return nil, err
	}
	return info, nil
}

// Cancel cancels a payment request on the provider side
func (c *Client) Cancel(ctx context.Context, orderCode int64, reason string) error {
	path := "/v2/payment-requests/" + strconv.FormatInt(orderCode, 10) + "/cancel"
	body := &cancelBody{CancellationReason: reason}

	result := c.retrier.Do(ctx, func(ctx context.Context) error {
		_, err := c.call(ctx, http.MethodPost, path, body, "cancel")
		return err
	})
	return finalError(result)
}

// VerifySignature checks a webhook body against its x-signature header
func (c *Client) VerifySignature(payload []byte, signature string) error {
	return VerifyWebhook(payload, signature, c.creds.ChecksumKey)
}

// Name returns the gateway name
func (c *Client) Name() string {
	return "payos"
}

// call performs one HTTP round trip and unwraps the provider envelope.
// Transport failures and 5xx/429 are transient; everything else is not.
func (c *Client) call(ctx context.Context, method, path string, body any, op string) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, retry.Permanent(domain.NewGatewayError(op, "", false, err))
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, retry.Permanent(domain.NewGatewayError(op, "", false, err))
	}
	req.Header.Set("x-client-id", c.creds.ClientID)
	req.Header.Set("x-api-key", c.creds.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewGatewayError(op, "", true, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domain.NewGatewayError(op, "", true, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.NewGatewayError(op, strconv.Itoa(resp.StatusCode), true,
			fmt.Errorf("provider returned %s", resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, retry.Permanent(domain.NewGatewayError(op, strconv.Itoa(resp.StatusCode), false,
			fmt.Errorf("provider returned %s", resp.Status)))
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, domain.NewGatewayError(op, "", true,
			fmt.Errorf("malformed response body: %w", err))
	}
	if envelope.Code != successCode {
		return nil, retry.Permanent(domain.NewGatewayError(op, envelope.Code, false,
			errors.New(envelope.Desc)))
	}
	return envelope.Data, nil
}

// finalError surfaces the underlying failure from a retry result
func finalError(result *retry.Result) error {
	if result.Err == nil {
		return nil
	}
	if errors.Is(result.Err, retry.ErrMaxRetriesExceeded) && result.LastError != nil {
		return result.LastError
	}
	return result.Err
}
