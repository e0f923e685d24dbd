package router

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

func TestOpenAPIDocumentIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../public/docs/v1/openapi.yml")
	if err != nil {
		t.Fatalf("failed to load openapi document: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("openapi document is invalid: %v", err)
	}
}

func TestOpenAPIDocumentCoversPaymentEndpoints(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../public/docs/v1/openapi.yml")
	if err != nil {
		t.Fatalf("failed to load openapi document: %v", err)
	}

	required := []string{
		"/api/checkout",
		"/api/webhooks/creem",
		"/api/verify-payment",
		"/api/payment-status",
		"/api/payments",
		"/api/generate",
	}
	for _, path := range required {
		if doc.Paths.Find(path) == nil {
			t.Errorf("openapi document is missing path %s", path)
		}
	}
}
