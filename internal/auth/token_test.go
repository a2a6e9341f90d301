package auth_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pm13/formation-backend/internal/auth"
)

func Test_Token_Generate(t *testing.T) {
	t.Run("ok, tokens are distinct", func(t *testing.T) {
		seen := make(map[auth.Token]bool)
		for i := 0; i < 1000; i++ {
			tok, err := auth.GenerateToken()
			if err != nil {
				t.Fatalf("failed to generate token: %v", err)
			}
			if seen[tok] {
				t.Fatalf("duplicate token after %d generations", i)
			}
			seen[tok] = true
		}
	})

	t.Run("ok, string form round trips", func(t *testing.T) {
		tok, err := auth.GenerateToken()
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		raw := tok.String()
		if len(raw) != 64 {
			t.Errorf("expected 64 hex characters, got %d", len(raw))
		}

		got, err := auth.ParseToken(raw)
		if err != nil {
			t.Fatalf("failed to parse token: %v", err)
		}
		if got != tok {
			t.Errorf("got %v, want %v", got, tok)
		}
	})
}

func Test_Token_Parse(t *testing.T) {
	fail := map[string]string{
		"empty":     "",
		"too short": "abcd",
		"too long":  strings.Repeat("ab", 33),
		"non-hex":   strings.Repeat("zz", 32),
	}

	for name, raw := range fail {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ParseToken(raw)
			if !errors.Is(err, auth.ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func Test_Token_StorageHash(t *testing.T) {
	tok1 := must(auth.GenerateToken())
	tok2 := must(auth.GenerateToken())

	if len(tok1.StorageHash()) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(tok1.StorageHash()))
	}
	if tok1.StorageHash() != tok1.StorageHash() {
		t.Errorf("expected storage hash to be deterministic")
	}
	if tok1.StorageHash() == tok2.StorageHash() {
		t.Errorf("expected distinct tokens to have distinct storage hashes")
	}
	if tok1.StorageHash() == tok1.String() {
		t.Errorf("expected storage hash to differ from the plaintext form")
	}
}

func Test_Token_PreventExposure(t *testing.T) {
	tok := must(auth.GenerateToken())

	got := tok.LogValue().String()
	if got != auth.SecretMarker {
		t.Errorf("wanted\n%s\ngot\n%s\n", auth.SecretMarker, got)
	}

	// String is deliberately allowed, tokens go into emails.
	if fmt.Sprint(tok.String()) == auth.SecretMarker {
		t.Errorf("expected String to expose the token")
	}
}
