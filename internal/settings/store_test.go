package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pm13/formation-backend/internal/db/testdb"
	"github.com/pm13/formation-backend/internal/errorz"
	"github.com/pm13/formation-backend/internal/settings"
)

func Test_Store_All(t *testing.T) {
	t.Run("ok, empty store", func(t *testing.T) {
		store := settings.New(testdb.RunWhile(t, true))

		got, err := store.All(context.Background())
		if err != nil {
			t.Fatalf("failed to get settings: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no settings, got %v", got)
		}
	})

	t.Run("ok, returns everything stored", func(t *testing.T) {
		store := settings.New(testdb.RunWhile(t, true))
		ctx := context.Background()

		want := map[string]string{
			"smtp_host":  "smtp.example.com",
			"smtp_port":  "2525",
			"site_title": "Formation",
		}
		if err := store.Set(ctx, want); err != nil {
			t.Fatalf("failed to set settings: %v", err)
		}

		got, err := store.All(ctx)
		if err != nil {
			t.Fatalf("failed to get settings: %v", err)
		}

		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("key %q: got %q, want %q", k, got[k], v)
			}
		}
	})
}

func Test_Store_Set(t *testing.T) {
	t.Run("ok, overwrites existing keys and keeps others", func(t *testing.T) {
		store := settings.New(testdb.RunWhile(t, true))
		ctx := context.Background()

		if err := store.Set(ctx, map[string]string{
			"smtp_host": "smtp.one.example",
			"smtp_port": "2525",
		}); err != nil {
			t.Fatalf("failed to set settings: %v", err)
		}

		if err := store.Set(ctx, map[string]string{
			"smtp_host": "smtp.two.example",
		}); err != nil {
			t.Fatalf("failed to set settings: %v", err)
		}

		got, err := store.All(ctx)
		if err != nil {
			t.Fatalf("failed to get settings: %v", err)
		}

		if got["smtp_host"] != "smtp.two.example" {
			t.Errorf("expected smtp_host to be overwritten, got %q", got["smtp_host"])
		}
		if got["smtp_port"] != "2525" {
			t.Errorf("expected smtp_port to be untouched, got %q", got["smtp_port"])
		}
	})
}

func Test_Store_Get(t *testing.T) {
	store := settings.New(testdb.RunWhile(t, true))
	ctx := context.Background()

	if err := store.Set(ctx, map[string]string{"smtp_host": "smtp.example.com"}); err != nil {
		t.Fatalf("failed to set settings: %v", err)
	}

	t.Run("ok", func(t *testing.T) {
		got, err := store.Get(ctx, "smtp_host")
		if err != nil {
			t.Fatalf("failed to get setting: %v", err)
		}
		if got != "smtp.example.com" {
			t.Errorf("got %q, want %q", got, "smtp.example.com")
		}
	})

	t.Run("fail, unknown key", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		if !errors.Is(err, errorz.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
