package auth_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pm13/formation-backend/internal/auth"
)

func Test_Password_ParseHashMatch(t *testing.T) {
	ok := map[string]string{
		"minimum length": "12345678",
		"regular":        "reallyStrongPassword1",
		"passphrase":     "correct horse battery staple",
		"max length":     stringOfLen(512),
	}

	for name, raw := range ok {
		t.Run(name, func(t *testing.T) {
			pwd, err := auth.ParsePassword(raw)
			if err != nil {
				t.Fatalf("failed to parse password: %v", err)
			}

			hash, err := pwd.Hash()
			if err != nil {
				t.Fatalf("failed to hash password: %v", err)
			}

			// We can't compare the resulting hash to a known value,
			// because of the random salt, so we check if the password
			// matches its own hash instead.
			if !pwd.Match(hash) {
				t.Errorf("password\n%s\ndoes not match own hash\n%+v", raw, hash)
			}
		})
	}

	t.Run("ok, password does not match hash", func(t *testing.T) {
		pwd, err := auth.ParsePassword("reallyStrongPassword1")
		if err != nil {
			t.Fatalf("failed to parse password: %v", err)
		}

		hash, err := pwd.Hash()
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}

		other, err := auth.ParsePassword("reallyStrongPassword2")
		if err != nil {
			t.Fatalf("failed to parse password: %v", err)
		}

		if other.Match(hash) {
			t.Errorf("password\n%s\nshould not match hash\n%+v", other, hash)
		}
	})

	failParsing := map[string]string{
		"empty":     "",
		"too short": "1234567",
		"too long":  stringOfLen(513),
	}

	for name, raw := range failParsing {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ParsePassword(raw)
			if err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}

func Test_Password_PreventExposure(t *testing.T) {
	pwd, err := auth.ParsePassword("12345678")
	if err != nil {
		t.Fatalf("failed to parse password: %v", err)
	}

	assert := func(t *testing.T, s string) {
		t.Helper()
		if s != auth.SecretMarker {
			t.Errorf("wanted\n%s\ngot\n%s\n", auth.SecretMarker, s)
		}
	}

	t.Run("ok, fmt", func(t *testing.T) {
		assert(t, fmt.Sprintf("%s", pwd)) //nolint:gosimple
		assert(t, fmt.Sprintf("%d", pwd))
		assert(t, fmt.Sprintf("%v", pwd))
		assert(t, fmt.Sprintf("%#v", pwd))
	})

	t.Run("ok, marshal as text", func(t *testing.T) {
		got, err := pwd.MarshalText()
		if err != nil {
			t.Fatalf("failed to marshal text: %v", err)
		}

		assert(t, string(got))
	})
}

func stringOfLen(n int) string {
	return strings.Repeat("a", n)
}
