package auth

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestTokenResolver_RoundTrip(t *testing.T) {
	resolver := NewTokenResolver("test-secret")

	token := resolver.MintToken("user-1")
	userID, err := resolver.Resolve(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user id: %s", userID)
	}

	// Префикс Bearer должен отбрасываться.
	userID, err = resolver.Resolve("Bearer " + token)
	if err != nil {
		t.Fatalf("unexpected error with bearer prefix: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user id with bearer prefix: %s", userID)
	}
}

func TestTokenResolver_Invalid(t *testing.T) {
	resolver := NewTokenResolver("test-secret")
	token := resolver.MintToken("user-1")

	cases := []struct {
		name       string
		credential string
	}{
		{"empty", ""},
		{"no separator", "not-a-token"},
		{"garbage payload", "!!!.AAAA"},
		{"garbage signature", "dXNlci0x.!!!"},
		{"tampered payload", "dXNlci0y." + token[len("dXNlci0x."):]},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := resolver.Resolve(tc.credential); !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestTokenResolver_WrongSecret(t *testing.T) {
	issuer := NewTokenResolver("secret-a")
	verifier := NewTokenResolver("secret-b")

	token := issuer.MintToken("user-1")
	if _, err := verifier.Resolve(token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for foreign secret, got %v", err)
	}
}
