package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signPayload(t *testing.T, secret, timestamp string, payload []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature_Valid(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"customer.created"}`)
	secret := "whsec_testsecret"
	sig := signPayload(t, secret, "1717243800", payload)
	header := fmt.Sprintf("t=1717243800,v1=%s", sig)

	assert.True(t, VerifyWebhookSignature(payload, header, secret))
}

func TestVerifyWebhookSignature_AcceptsAnyMatchingV1(t *testing.T) {
	payload := []byte(`{"id":"evt_2"}`)
	secret := "whsec_rotated"
	good := signPayload(t, secret, "1717243800", payload)
	stale := signPayload(t, "whsec_old", "1717243800", payload)
	header := fmt.Sprintf("t=1717243800,v1=%s,v1=%s", stale, good)

	assert.True(t, VerifyWebhookSignature(payload, header, secret))
}

func TestVerifyWebhookSignature_Invalid(t *testing.T) {
	payload := []byte(`{"id":"evt_3"}`)
	secret := "whsec_testsecret"
	sig := signPayload(t, secret, "1717243800", payload)

	tests := []struct {
		name   string
		header string
		secret string
	}{
		{name: "wrong secret", header: "t=1717243800,v1=" + sig, secret: "whsec_other"},
		{name: "tampered timestamp", header: "t=1717243999,v1=" + sig, secret: secret},
		{name: "missing timestamp", header: "v1=" + sig, secret: secret},
		{name: "missing signature", header: "t=1717243800", secret: secret},
		{name: "garbage header", header: "not-a-signature", secret: secret},
		{name: "non-hex signature", header: "t=1717243800,v1=zzzz", secret: secret},
		{name: "empty header", header: "", secret: secret},
		{name: "empty secret", header: "t=1717243800,v1=" + sig, secret: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyWebhookSignature(payload, tt.header, tt.secret))
		})
	}
}

func TestVerifyWebhookSignature_TamperedPayload(t *testing.T) {
	secret := "whsec_testsecret"
	sig := signPayload(t, secret, "1717243800", []byte(`{"amount":100}`))
	header := "t=1717243800,v1=" + sig

	assert.False(t, VerifyWebhookSignature([]byte(`{"amount":999}`), header, secret))
}
