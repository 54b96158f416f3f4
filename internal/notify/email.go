package notify

import (
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/Alias1177/oisentinel/models"
)

// EmailNotifier sends alerts over SMTP with implicit TLS (SMTPS, port
// 465 style).
type EmailNotifier struct {
	server   string
	port     int
	from     string
	to       string
	password string
}

func NewEmailNotifier(cfg *models.Config) *EmailNotifier {
	return &EmailNotifier{
		server:   cfg.SMTPServer,
		port:     cfg.SMTPPort,
		from:     cfg.EmailFrom,
		to:       cfg.EmailTo,
		password: cfg.EmailPassword,
	}
}

func (e *EmailNotifier) Notify(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", e.server, e.port)

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: e.server})
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}

	client, err := smtp.NewClient(conn, e.server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", e.from, e.password, e.server)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(e.to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", e.from, e.to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	return client.Quit()
}
