package email_test

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pm13/formation-backend/assets"
	"github.com/pm13/formation-backend/internal/email"
	"github.com/pm13/formation-backend/internal/email/view"
)

func newEmailService(t *testing.T, settings *fakeSettings, frontendURL string) (*email.Service, *email.MemorySender) {
	t.Helper()

	u, err := url.Parse(frontendURL)
	if err != nil {
		t.Fatalf("failed to parse frontend url: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := email.NewResolver(testDefaults(), settings, time.Minute, logger)

	sender := email.NewMemorySender()
	svc := email.NewService(resolver, view.NewFSRenderer(assets.EmailFS), func(email.MailConfig) email.Sender {
		return sender
	}, u)

	return svc, sender
}

const testToken = "ddc15264c91112fdc416488e0d6e2ea9623504cb60b3ff1256d8af8a2a870260"

func Test_Service_SendVerification(t *testing.T) {
	svc, sender := newEmailService(t, &fakeSettings{}, "http://localhost:5173")

	err := svc.SendVerification(context.Background(), "alice@example.com", "Alice Example", testToken)
	if err != nil {
		t.Fatalf("failed to send verification: %v", err)
	}

	if len(sender.Emails) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.Emails))
	}

	mail := sender.Emails[0]
	if mail.From != testDefaults().From {
		t.Errorf("expected from %s, got %s", testDefaults().From, mail.From)
	}
	if mail.Recipient != "alice@example.com" {
		t.Errorf("expected recipient alice@example.com, got %s", mail.Recipient)
	}
	if mail.Subject == "" || strings.Contains(mail.Subject, "\n") {
		t.Errorf("unexpected subject %q", mail.Subject)
	}

	wantLink := "http://localhost:5173/verify-email?token=" + testToken
	if !strings.Contains(mail.Body, wantLink) {
		t.Errorf("expected body to contain link %q, got:\n%s", wantLink, mail.Body)
	}
	if !strings.Contains(mail.Body, "Alice Example") {
		t.Errorf("expected body to address the recipient by name, got:\n%s", mail.Body)
	}
}

func Test_Service_SendResend(t *testing.T) {
	svc, sender := newEmailService(t, &fakeSettings{}, "https://formation.example/app")

	err := svc.SendResend(context.Background(), "bob@example.com", "Bob Example", testToken)
	if err != nil {
		t.Fatalf("failed to send resend: %v", err)
	}

	if len(sender.Emails) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.Emails))
	}

	// The frontend path prefix is preserved in the link.
	wantLink := "https://formation.example/app/verify-email?token=" + testToken
	if !strings.Contains(sender.Emails[0].Body, wantLink) {
		t.Errorf("expected body to contain link %q, got:\n%s", wantLink, sender.Emails[0].Body)
	}
}

func Test_Service_UsesResolvedConfig(t *testing.T) {
	settings := &fakeSettings{values: map[string]string{
		"smtp_from": "noreply@override.example",
	}}
	svc, sender := newEmailService(t, settings, "http://localhost:5173")

	err := svc.SendVerification(context.Background(), "alice@example.com", "Alice Example", testToken)
	if err != nil {
		t.Fatalf("failed to send verification: %v", err)
	}

	if sender.Emails[0].From != "noreply@override.example" {
		t.Errorf("expected overridden from address, got %s", sender.Emails[0].From)
	}
}
