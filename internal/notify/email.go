package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

type EmailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Sender     string
	Recipients []string
	// FromName is the display name used in the From header.
	FromName string
	Timeout  time.Duration
	// TLSConfig is used for STARTTLS when the server offers it.
	TLSConfig *tls.Config
}

// RejectedError means the server refused some or all recipients.
type RejectedError struct {
	Recipients []string
	Delivered  int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("smtp rejected %d recipient(s): %s", len(e.Recipients), strings.Join(e.Recipients, ", "))
}

type Email struct {
	cfg EmailConfig
	now func() time.Time
}

func NewEmail(cfg EmailConfig) *Email {
	if cfg.FromName == "" {
		cfg.FromName = "Status Notifier"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Email{cfg: cfg, now: time.Now}
}

// Send delivers a plain-text message. A *RejectedError is returned when the
// server refused recipients; other errors mean the transport itself failed.
func (e *Email) Send(ctx context.Context, subject, body string) error {
	if len(e.cfg.Recipients) == 0 {
		return errors.New("smtp: no recipients configured")
	}
	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))

	dialer := &net.Dialer{Timeout: e.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	} else {
		_ = conn.SetDeadline(time.Now().Add(e.cfg.Timeout))
	}

	c, err := smtp.NewClient(conn, e.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		tlsCfg := e.cfg.TLSConfig
		if tlsCfg == nil {
			tlsCfg = &tls.Config{ServerName: e.cfg.Host}
		}
		if err := c.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if e.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(e.cfg.Sender); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	var accepted, rejected []string
	for _, rcpt := range e.cfg.Recipients {
		if err := c.Rcpt(rcpt); err != nil {
			var reply *textproto.Error
			if !errors.As(err, &reply) {
				return fmt.Errorf("rcpt to: %w", err)
			}
			rejected = append(rejected, rcpt)
			continue
		}
		accepted = append(accepted, rcpt)
	}
	if len(accepted) == 0 {
		_ = c.Quit()
		return &RejectedError{Recipients: rejected}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(e.message(accepted, subject, body)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	_ = c.Quit()

	if len(rejected) > 0 {
		return &RejectedError{Recipients: rejected, Delivered: len(accepted)}
	}
	return nil
}

func (e *Email) message(to []string, subject, body string) []byte {
	from := e.cfg.Sender
	if name := strings.TrimSpace(e.cfg.FromName); name != "" {
		from = fmt.Sprintf("%s <%s>", name, e.cfg.Sender)
	}
	lines := []string{
		"From: " + sanitizeHeader(from),
		"To: " + sanitizeHeader(strings.Join(to, ", ")),
		"Subject: " + mime.QEncoding.Encode("utf-8", sanitizeHeader(subject)),
		"Date: " + e.now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"),
	}
	return []byte(strings.Join(lines, "\r\n"))
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
