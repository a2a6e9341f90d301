package email

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

// Renderer is responsible for rendering email templates.
type Renderer interface {
	Render(w io.Writer, name string, element TemplateElement, data any) error
}

// SenderFunc builds a Sender for a resolved configuration. Delivery is
// dynamically configured, so a fresh Sender is built per dispatch.
type SenderFunc func(cfg MailConfig) Sender

// Service renders and sends the verification emails.
//
// Send failures are returned to the direct caller only. The auth service
// invokes Service on a detached worker goroutine, so a broken or slow mail
// server never fails a registration or resend request.
type Service struct {
	resolver    *Resolver
	renderer    Renderer
	senderFor   SenderFunc
	frontendURL *url.URL
}

func NewService(resolver *Resolver, renderer Renderer, senderFor SenderFunc, frontendURL *url.URL) *Service {
	return &Service{
		resolver:    resolver,
		renderer:    renderer,
		senderFor:   senderFor,
		frontendURL: frontendURL,
	}
}

// linkData is the data available to the email templates.
type linkData struct {
	Name string
	Link string
}

// SendVerification sends the initial verification email for a new account.
func (s *Service) SendVerification(ctx context.Context, to Address, displayName, token string) error {
	return s.send(ctx, "verification", to, displayName, token)
}

// SendResend sends a fresh verification email after a resend request.
func (s *Service) SendResend(ctx context.Context, to Address, displayName, token string) error {
	return s.send(ctx, "verification-resend", to, displayName, token)
}

func (s *Service) send(ctx context.Context, view string, to Address, displayName, token string) error {
	data := linkData{
		Name: displayName,
		Link: s.verificationLink(token),
	}

	var subject strings.Builder
	if err := s.renderer.Render(&subject, view, ElementSubject, data); err != nil {
		return fmt.Errorf("failed to render subject of %q: %w", view, err)
	}

	var body strings.Builder
	if err := s.renderer.Render(&body, view, ElementBody, data); err != nil {
		return fmt.Errorf("failed to render body of %q: %w", view, err)
	}

	cfg := s.resolver.Resolve(ctx)
	sender := s.senderFor(cfg)

	err := sender.Send(ctx, cfg.From, to, strings.TrimSpace(subject.String()), body.String())
	if err != nil {
		return fmt.Errorf("failed to send %q email: %w", view, err)
	}

	return nil
}

// verificationLink joins the configured front-end origin with the fixed
// verification path and the token as a query parameter.
func (s *Service) verificationLink(token string) string {
	u := *s.frontendURL
	u.Path = path.Join(u.Path, "verify-email")

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String()
}
