package auth_test

import (
	"testing"

	"github.com/pm13/formation-backend/internal/auth"
)

func Test_VerificationState_Value(t *testing.T) {
	t.Run("legacy maps to null", func(t *testing.T) {
		v, err := auth.VerificationLegacyUnknown.Value()
		if err != nil {
			t.Fatalf("failed to get value: %v", err)
		}
		if v != nil {
			t.Errorf("expected nil, got %v", v)
		}
	})

	t.Run("unverified maps to false", func(t *testing.T) {
		v, err := auth.VerificationUnverified.Value()
		if err != nil {
			t.Fatalf("failed to get value: %v", err)
		}
		if v != false {
			t.Errorf("expected false, got %v", v)
		}
	})

	t.Run("verified maps to true", func(t *testing.T) {
		v, err := auth.VerificationVerified.Value()
		if err != nil {
			t.Fatalf("failed to get value: %v", err)
		}
		if v != true {
			t.Errorf("expected true, got %v", v)
		}
	})

	t.Run("fail, out of range", func(t *testing.T) {
		if _, err := auth.VerificationState(42).Value(); err == nil {
			t.Errorf("expected error, got nil")
		}
	})
}

func Test_VerificationState_Scan(t *testing.T) {
	ok := map[string]struct {
		src  any
		want auth.VerificationState
	}{
		"null is legacy":      {src: nil, want: auth.VerificationLegacyUnknown},
		"false is unverified": {src: false, want: auth.VerificationUnverified},
		"true is verified":    {src: true, want: auth.VerificationVerified},
		"zero is unverified":  {src: int64(0), want: auth.VerificationUnverified},
		"one is verified":     {src: int64(1), want: auth.VerificationVerified},
	}

	for name, tc := range ok {
		t.Run(name, func(t *testing.T) {
			var got auth.VerificationState
			if err := got.Scan(tc.src); err != nil {
				t.Fatalf("failed to scan: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("fail, unsupported type", func(t *testing.T) {
		var got auth.VerificationState
		if err := got.Scan("yes"); err == nil {
			t.Errorf("expected error, got nil")
		}
	})
}
