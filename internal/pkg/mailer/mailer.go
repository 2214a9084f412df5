package mailer

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

// ErrDisabled is returned by Send when no SMTP host is configured
var ErrDisabled = errors.New("mailer: smtp not configured")

//go:embed template.html
var layout string

var page = template.Must(template.New("email").Parse(layout))

// Config holds SMTP settings
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	From         string
	SupportEmail string
}

// Mailer sends portal emails with a plain text part and an HTML part
type Mailer struct {
	cfg    Config
	dialer *gomail.Dialer
}

// New creates a mailer. With an empty host the mailer is disabled.
func New(cfg Config) *Mailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.SupportEmail == "" {
		cfg.SupportEmail = "support@nagarpalika.gov.in"
	}
	m := &Mailer{cfg: cfg}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

// Enabled reports whether an SMTP host is configured
func (m *Mailer) Enabled() bool {
	return m.dialer != nil
}

// Send delivers one message. The context bounds only the wait before dialing;
// gomail has no cancellable dial.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if m.dialer == nil {
		return ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := Render(subject, body, m.cfg.SupportEmail)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.AddAlternative("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}

// Render fills the HTML email layout
func Render(subject, body, supportEmail string) (string, error) {
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Subject      string
		Body         string
		Year         int
		SupportEmail string
	}{subject, body, time.Now().Year(), supportEmail})
	if err != nil {
		return "", fmt.Errorf("mailer: render: %w", err)
	}
	return buf.String(), nil
}
