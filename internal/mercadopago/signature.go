package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSecret    = errors.New("webhook secret not configured")
	ErrMissingSignature = errors.New("missing x-signature header")
	ErrMalformedHeader  = errors.New("malformed x-signature header")
	ErrSignatureExpired = errors.New("signature timestamp outside tolerance")
	ErrSignatureInvalid = errors.New("signature mismatch")
)

// WebhookVerifier validates Mercado Pago webhook signatures.
//
// The x-signature header contains: ts=<timestamp>,v1=<signature>
// The signature is HMAC-SHA256 of: id:<data.id>;request-id:<x-request-id>;ts:<timestamp>;
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration // zero disables the timestamp check
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier for the given secret.
func NewWebhookVerifier(secret string, tolerance time.Duration) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify returns nil if the signature header is valid.
func (v *WebhookVerifier) Verify(signatureHeader, requestID, resourceID string) error {
	if len(v.secret) == 0 {
		return ErrMissingSecret
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return ErrMissingSignature
	}

	ts, hash := parseSignatureHeader(signatureHeader)
	if ts == "" || hash == "" {
		return ErrMalformedHeader
	}

	if v.tolerance > 0 {
		signedAt, err := parseTimestamp(ts)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedHeader, err)
		}
		if skew := v.now().Sub(signedAt); skew > v.tolerance || skew < -v.tolerance {
			return ErrSignatureExpired
		}
	}

	expected := Sign(v.secret, resourceID, requestID, ts)
	if !hmac.Equal([]byte(strings.ToLower(hash)), []byte(expected)) {
		return ErrSignatureInvalid
	}

	return nil
}

// Sign computes the v1 signature for a delivery.
func Sign(secret []byte, resourceID, requestID, ts string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(buildManifest(resourceID, requestID, ts)))
	return hex.EncodeToString(h.Sum(nil))
}

// parseSignatureHeader extracts ts and v1 values from the x-signature header.
func parseSignatureHeader(header string) (ts, hash string) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			hash = strings.TrimSpace(value)
		}
	}
	return ts, hash
}

// buildManifest constructs the string to be signed. Parts that are absent
// from the delivery are left out.
func buildManifest(resourceID, requestID, ts string) string {
	var b strings.Builder
	if resourceID != "" {
		// Alphanumeric ids are signed lowercased.
		b.WriteString("id:" + strings.ToLower(resourceID) + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}

// parseTimestamp accepts seconds or milliseconds since the epoch.
func parseTimestamp(ts string) (time.Time, error) {
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	if n > 1e12 {
		return time.UnixMilli(n), nil
	}
	return time.Unix(n, 0), nil
}
