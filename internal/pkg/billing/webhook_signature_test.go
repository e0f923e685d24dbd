package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestVerifyCreemWebhookSignature(t *testing.T) {
	payload := []byte(`{"type":"checkout.completed"}`)
	secret := "whsec_test"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	validSig := hex.EncodeToString(mac.Sum(nil))

	if !VerifyCreemWebhookSignature(payload, validSig, secret) {
		t.Fatalf("expected signature to validate")
	}
	if VerifyCreemWebhookSignature(payload, validSig, "other-secret") {
		t.Fatalf("expected signature with wrong secret to fail")
	}
	if VerifyCreemWebhookSignature(payload, "deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
	if VerifyCreemWebhookSignature(payload, "", secret) {
		t.Fatalf("expected empty signature to fail")
	}
	if VerifyCreemWebhookSignature(payload, validSig, "") {
		t.Fatalf("expected empty secret to fail")
	}
	if VerifyCreemWebhookSignature(payload, "not-hex!", secret) {
		t.Fatalf("expected non-hex signature to fail")
	}
}

func TestSignWebhookPayloadRoundTrip(t *testing.T) {
	payload := []byte(`{"type":"payment.succeeded"}`)
	secret := "whsec_roundtrip"

	sig := SignWebhookPayload(payload, secret)
	if !VerifyCreemWebhookSignature(payload, sig, secret) {
		t.Fatalf("expected signed payload to verify")
	}
}
