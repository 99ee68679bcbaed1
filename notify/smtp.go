package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPNotifier struct {
	cfg    SMTPConfig
	logger *slog.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg SMTPConfig, logger *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, logger: logger, send: smtp.SendMail}
}

func (n *SMTPNotifier) SendBill(ctx context.Context, bill Bill) error {
	body, err := RenderHTML(bill)
	if err != nil {
		return fmt.Errorf("render bill: %w", err)
	}
	msg := n.message(bill, body)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)

	n.logger.InfoContext(ctx, "sending bill email", "to", bill.To, "addr", addr)

	// net/smtp has no context support; the send runs until the server answers
	// and the caller stops waiting when ctx ends.
	done := make(chan error, 1)
	go func() { done <- n.send(addr, auth, n.cfg.From, []string{bill.To}, msg) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send bill email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send bill email: %w", ctx.Err())
	}
}

func (n *SMTPNotifier) message(bill Bill, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", bill.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", bill.IssuedAt.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.Bytes()
}
