package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/jordan-wright/email"
)

// SMTPSettings configure delivery through an SMTP relay. Port 465 uses
// implicit TLS; any other port upgrades with STARTTLS when offered.
type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	// Logger receives the outcome of sends that finish after Timeout.
	Logger Logger
}

type sendFunc func(e *email.Email, addr string, auth smtp.Auth, tlsConfig *tls.Config) error

type smtpMailer struct {
	cfg  SMTPSettings
	auth smtp.Auth
	send sendFunc
}

func NewSMTPMailer(cfg SMTPSettings) (Mailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp: host is required")
	}
	if cfg.Port == 0 {
		return nil, errors.New("smtp: port is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger{}
	}

	var auth smtp.Auth
	if strings.TrimSpace(cfg.Username) != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &smtpMailer{cfg: cfg, auth: auth, send: defaultSend}, nil
}

func defaultSend(e *email.Email, addr string, auth smtp.Auth, tlsConfig *tls.Config) error {
	if tlsConfig != nil {
		return e.SendWithTLS(addr, auth, tlsConfig)
	}
	return e.Send(addr, auth)
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(m.cfg.From); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = msg.From
	e.To = msg.To
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTML)
	if msg.Text != "" {
		e.Text = []byte(msg.Text)
	}
	e.Headers = textproto.MIMEHeader{}
	if msg.ReplyTo != "" {
		e.ReplyTo = []string{msg.ReplyTo}
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var tlsConfig *tls.Config
	if m.cfg.Port == 465 {
		tlsConfig = &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	// net/smtp has no context support. On timeout the send keeps running and
	// its outcome is logged by reportLateSend, since a retry above us may
	// then deliver the same message twice.
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.send(e, addr, m.auth, tlsConfig)
	}()

	select {
	case <-ctx.Done():
		go m.reportLateSend(errCh, addr, msg.Subject, len(e.To))
		return fmt.Errorf("smtp: send to %s: timeout: %w", addr, ctx.Err())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp: send to %s: %w", addr, err)
		}
		return nil
	}
}

func (m *smtpMailer) reportLateSend(errCh <-chan error, addr, subject string, recipients int) {
	if err := <-errCh; err != nil {
		m.cfg.Logger.Warn("SMTP send failed after timeout", "addr", addr, "subject", subject, "recipients", recipients, "error", err)
		return
	}
	m.cfg.Logger.Warn("SMTP send completed after timeout; message was delivered", "addr", addr, "subject", subject, "recipients", recipients)
}

type discardLogger struct{}

func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
