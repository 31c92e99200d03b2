package gateway

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/N4thh/homi-nah/internal/domain"
)

// Sign computes the HMAC-SHA256 hex digest of the scalar fields in data,
// sorted by key and joined as k1=v1&k2=v2. A "signature" field is ignored.
// Both request signing and webhook verification use this canonical form.
func Sign(data map[string]any, checksumKey string) string {
	mac := hmac.New(sha256.New, []byte(checksumKey))
	mac.Write([]byte(canonicalize(data)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook checks a raw webhook body against its signature header
func VerifyWebhook(payload []byte, signature, checksumKey string) error {
	if strings.TrimSpace(signature) == "" {
		return domain.ErrMissingSignature
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return domain.ErrInvalidSignature
	}

	expected := Sign(data, checksumKey)
	received := strings.ToLower(strings.TrimSpace(signature))
	if !hmac.Equal([]byte(expected), []byte(received)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// canonicalize renders the scalar fields of data sorted by key. Nested
// objects, arrays and the signature field are excluded from signing.
func canonicalize(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "signature" {
			continue
		}
		if _, ok := scalarString(data[k]); !ok {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		v, _ := scalarString(data[k])
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	}
	return "", false
}

// signCreateLink signs the five request fields the provider checks
func signCreateLink(req *CreateLinkRequest, checksumKey string) string {
	return Sign(map[string]any{
		"amount":      req.Amount,
		"cancelUrl":   req.CancelURL,
		"description": req.Description,
		"orderCode":   req.OrderCode,
		"returnUrl":   req.ReturnURL,
	}, checksumKey)
}
