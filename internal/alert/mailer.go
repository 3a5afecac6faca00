package alert

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Notifier delivers one formatted alert to the configured recipient.
type Notifier interface {
	Send(subject, body string) error
}

// ErrIncompleteConfig marks a send attempted without credentials or a
// recipient. It surfaces at send time, not startup, so a partially
// configured deployment still ingests and classifies events.
var ErrIncompleteConfig = errors.New("smtp user, password and recipient are required")

const dialTimeout = 15 * time.Second

// Mailer sends alerts as plain-text mail over SMTP, upgrading the
// connection with STARTTLS when the server offers it.
type Mailer struct {
	Host      string
	Port      int
	User      string
	Password  string
	Recipient string
}

func (m *Mailer) Send(subject, body string) error {
	if m.User == "" || m.Password == "" || m.Recipient == "" {
		return ErrIncompleteConfig
	}

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName: m.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starting tls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.User, m.Password, m.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(m.User); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := client.Rcpt(m.Recipient); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("starting message: %w", err)
	}
	if _, err := w.Write([]byte(m.buildMessage(subject, body))); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}

	// A failed QUIT after a completed DATA is harmless.
	_ = client.Quit()
	return nil
}

func (m *Mailer) buildMessage(subject, body string) string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.User)
	fmt.Fprintf(&msg, "To: %s\r\n", m.Recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")
	return msg.String()
}
