package stripe

import (
	"context"
	"testing"

	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/config"
)

func TestNewCheckoutClientCarriesConfiguredKey(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{
		APIKey: "sk_test_checkout",
		Secret: "whsec_checkout",
		Env:    "test",
	}, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	wrapper, ok := NewCheckoutClient(client).(*checkoutClientWrapper)
	if !ok {
		t.Fatal("expected the session-backed wrapper")
	}
	if wrapper.sessions == nil || wrapper.sessions.B == nil {
		t.Fatal("expected a wired session client")
	}
	if wrapper.sessions.Key != "sk_test_checkout" {
		t.Fatalf("session client carries key %q, want the configured one", wrapper.sessions.Key)
	}
}

func TestNewCheckoutClientNilInput(t *testing.T) {
	if got := NewCheckoutClient(nil); got != nil {
		t.Fatalf("expected nil wrapper for nil client, got %T", got)
	}
}

func TestNewClientRejectsMismatchedKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.StripeConfig{
		APIKey: "sk_live_oops",
		Secret: "whsec_x",
		Env:    "test",
	}, nil)
	if err == nil {
		t.Fatal("expected test env to reject a live key")
	}
}
