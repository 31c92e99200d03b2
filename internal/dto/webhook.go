package dto

// WebhookRequest represents the gateway callback body. Field names follow
// the gateway's wire format; the raw body must be kept for signature
// verification before this struct is decoded.
type WebhookRequest struct {
	OrderCode     int64  `json:"orderCode"`
	Status        string `json:"status"`
	TransID       string `json:"transId,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
}

// WebhookAck is the body returned to the gateway after processing
type WebhookAck struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	OrderCode int64  `json:"order_code,omitempty"`
	Status    string `json:"status,omitempty"`
}
