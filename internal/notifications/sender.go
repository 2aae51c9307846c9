package notifications

//go:generate mockgen -source=sender.go -destination=mock_sender.go -package=notifications

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/carbiooai/carbioo-api/pkg/mail"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

// Sender delivers the transactional emails of the waitlist, contact and
// investor flows.
type Sender interface {
	SendVerification(ctx context.Context, to, firstName, token string) error
	SendWelcome(ctx context.Context, to, firstName string) error
	SendContactNotification(ctx context.Context, contact ContactDetails) error
	SendInvestorAcknowledgment(ctx context.Context, to, fullName string) error
}

type ContactDetails struct {
	FirstName string
	LastName  string
	Email     string
	Message   string
}

type Config struct {
	// FrontendURL is the public site root verification links point at.
	FrontendURL string
	// AdminEmail receives contact form notifications.
	AdminEmail string
	TokenTTL   time.Duration
}

type emailSender struct {
	mailer    mail.Mailer
	cfg       Config
	templates *template.Template
}

func NewEmailSender(mailer mail.Mailer, cfg Config) (Sender, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	cfg.FrontendURL = strings.TrimRight(strings.TrimSpace(cfg.FrontendURL), "/")

	return &emailSender{mailer: mailer, cfg: cfg, templates: tmpl}, nil
}

// VerificationLink builds the link embedded in verification emails.
func VerificationLink(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/verify?token=" + url.QueryEscape(token)
}

func (s *emailSender) SendVerification(ctx context.Context, to, firstName, token string) error {
	body, err := s.render("verification.html", map[string]any{
		"Name":      greetingName(firstName),
		"Link":      VerificationLink(s.cfg.FrontendURL, token),
		"ExpiresIn": humanDuration(s.cfg.TokenTTL),
		"SiteURL":   s.cfg.FrontendURL,
	})
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: "Verify your email for the Carbioo AI waitlist",
		HTML:    body,
	})
}

func (s *emailSender) SendWelcome(ctx context.Context, to, firstName string) error {
	body, err := s.render("welcome.html", map[string]any{
		"Name":    greetingName(firstName),
		"SiteURL": s.cfg.FrontendURL,
	})
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: "Welcome to the Carbioo AI waitlist",
		HTML:    body,
	})
}

func (s *emailSender) SendContactNotification(ctx context.Context, contact ContactDetails) error {
	body, err := s.render("contact.html", contact)
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, mail.Message{
		To:      []string{s.cfg.AdminEmail},
		ReplyTo: contact.Email,
		Subject: fmt.Sprintf("New contact form submission from %s %s", contact.FirstName, contact.LastName),
		HTML:    body,
	})
}

func (s *emailSender) SendInvestorAcknowledgment(ctx context.Context, to, fullName string) error {
	body, err := s.render("investor.html", map[string]any{
		"Name":    greetingName(fullName),
		"SiteURL": s.cfg.FrontendURL,
	})
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: "Thank you for your interest in Carbioo AI",
		HTML:    body,
	})
}

func (s *emailSender) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// greetingName title-cases the name. Casers are stateful, so one is built per call.
func greetingName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	return cases.Title(language.English).String(name)
}

func humanDuration(d time.Duration) string {
	if d <= 0 {
		return "24 hours"
	}
	if d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
