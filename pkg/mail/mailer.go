package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrMailDisabled signals that delivery is switched off by configuration.
var ErrMailDisabled = errors.New("mail: delivery disabled")

// Message is one outbound email. HTML is required; Text is an optional
// plain-text alternative.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers a message or returns why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Validate checks addresses and fills From from fallback when empty.
func (m *Message) Validate(fallbackFrom string) error {
	if strings.TrimSpace(m.From) == "" {
		m.From = fallbackFrom
	}
	if strings.TrimSpace(m.From) == "" {
		return errors.New("mail: sender address is required")
	}
	if _, err := mail.ParseAddress(m.From); err != nil {
		return fmt.Errorf("mail: invalid from address: %w", err)
	}

	recipients := uniqueAddresses(m.To)
	if len(recipients) == 0 {
		return errors.New("mail: at least one recipient is required")
	}
	for _, rcpt := range recipients {
		if _, err := mail.ParseAddress(rcpt); err != nil {
			return fmt.Errorf("mail: invalid recipient address %q: %w", rcpt, err)
		}
	}
	m.To = recipients

	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("mail: subject is required")
	}
	m.Subject = escapeHeader(m.Subject)

	return nil
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var result []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, addr)
	}
	return result
}

func escapeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return value
}

type disabledMailer struct{}

// NewDisabledMailer returns a Mailer that refuses every message.
func NewDisabledMailer() Mailer {
	return disabledMailer{}
}

func (disabledMailer) Send(context.Context, Message) error {
	return ErrMailDisabled
}

type logMailer struct {
	from   string
	logger Logger
}

// NewLogMailer returns a Mailer for local development that only logs.
func NewLogMailer(from string, logger Logger) Mailer {
	return &logMailer{from: from, logger: logger}
}

func (m *logMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := msg.Validate(m.from); err != nil {
		return err
	}

	if m.logger != nil {
		m.logger.Info("Email delivery skipped (log driver)",
			"to", strings.Join(msg.To, ", "),
			"subject", msg.Subject,
			"html_bytes", len(msg.HTML),
		)
	}
	return nil
}
