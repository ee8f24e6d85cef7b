package mercadopago

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedHeader(secret, resourceID, requestID, ts string) string {
	return "ts=" + ts + ",v1=" + Sign([]byte(secret), resourceID, requestID, ts)
}

func TestVerify_AcceptsValidSignature(t *testing.T) {
	v := NewWebhookVerifier("whsec", 0)

	header := signedHeader("whsec", "123456", "req-1", "1704900000")

	require.NoError(t, v.Verify(header, "req-1", "123456"))
}

func TestVerify_ManifestFormat(t *testing.T) {
	assert.Equal(t, "id:123;request-id:req-1;ts:42;", buildManifest("123", "req-1", "42"))
	assert.Equal(t, "id:abc;ts:42;", buildManifest("ABC", "", "42"))
}

func TestVerify_Rejections(t *testing.T) {
	good := signedHeader("whsec", "123456", "req-1", "1704900000")

	testCases := []struct {
		name       string
		secret     string
		header     string
		requestID  string
		resourceID string
		want       error
	}{
		{"no secret configured", "", good, "req-1", "123456", ErrMissingSecret},
		{"missing header", "whsec", "", "req-1", "123456", ErrMissingSignature},
		{"header without v1", "whsec", "ts=1704900000", "req-1", "123456", ErrMalformedHeader},
		{"wrong secret", "other", good, "req-1", "123456", ErrSignatureInvalid},
		{"different resource", "whsec", good, "req-1", "999", ErrSignatureInvalid},
		{"different request id", "whsec", good, "req-2", "123456", ErrSignatureInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewWebhookVerifier(tc.secret, 0)
			err := v.Verify(tc.header, tc.requestID, tc.resourceID)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVerify_Tolerance(t *testing.T) {
	now := time.Unix(1704900000, 0)
	v := NewWebhookVerifier("whsec", 5*time.Minute)
	v.now = func() time.Time { return now }

	fresh := strconv.FormatInt(now.Add(-time.Minute).UnixMilli(), 10)
	require.NoError(t, v.Verify(signedHeader("whsec", "1", "r", fresh), "r", "1"))

	stale := strconv.FormatInt(now.Add(-time.Hour).Unix(), 10)
	assert.ErrorIs(t, v.Verify(signedHeader("whsec", "1", "r", stale), "r", "1"), ErrSignatureExpired)

	assert.ErrorIs(t, v.Verify(signedHeader("whsec", "1", "r", "soon"), "r", "1"), ErrMalformedHeader)
}

func TestParseSignatureHeader(t *testing.T) {
	ts, hash := parseSignatureHeader(" ts=17 , v1=abc")
	assert.Equal(t, "17", ts)
	assert.Equal(t, "abc", hash)

	ts, hash = parseSignatureHeader("garbage")
	assert.Empty(t, ts)
	assert.Empty(t, hash)
}
