// Package mailer sends transactional email over SMTP with implicit TLS and
// implements the lifecycle notification sink.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"log/slog"

	"github.com/creostudios/backend/internal/config"
	"github.com/creostudios/backend/internal/lifecycle"
)

type Mailer struct {
	cfg    config.MailConfig
	logger *slog.Logger

	// send is replaceable in tests; defaults to the SMTP transport.
	send func(to, subject, htmlBody string) error
}

var _ lifecycle.Notifier = (*Mailer)(nil)

func New(cfg config.MailConfig, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mailer{cfg: cfg, logger: logger}
	m.send = m.smtpSend
	return m
}

// SendOTP mails a verification code. Unlike lifecycle notifications, the
// caller sees this error: registration reports a failed send to the user.
func (m *Mailer) SendOTP(ctx context.Context, to, code string, expiryMinutes int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := renderOTP(code, expiryMinutes)
	if err != nil {
		return fmt.Errorf("render otp mail: %w", err)
	}

	return m.send(to, "Your OTP for Creo Studios", body)
}

// Notify implements lifecycle.Notifier. Errors are returned to the authority,
// which logs and swallows them.
func (m *Mailer) Notify(ctx context.Context, ev lifecycle.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var subject, body string
	var err error
	switch ev.Kind {
	case lifecycle.EventStatusAccepted, lifecycle.EventStatusRejected:
		subject = fmt.Sprintf("Your project request is %s", ev.Application.Status)
		body, err = renderStatus(ev.Application)
	case lifecycle.EventDelivered:
		subject = "Your project has been delivered"
		body, err = renderDelivery(ev.Application)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if err != nil {
		return fmt.Errorf("render %s mail: %w", ev.Kind, err)
	}

	return m.send(ev.Application.UserEmail, subject, body)
}

// smtpSend delivers one message over implicit TLS (port 465 style).
func (m *Mailer) smtpSend(to, subject, htmlBody string) error {
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			htmlBody,
	)

	serverAddr := m.cfg.Host + ":" + m.cfg.Port

	tlsConfig := &tls.Config{ServerName: m.cfg.Host}
	conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
	if err != nil {
		return fmt.Errorf("dial %s: %w", serverAddr, err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}

	return w.Close()
}
