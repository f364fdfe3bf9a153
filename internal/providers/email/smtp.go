package email

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPProvider struct {
	cfg      Config
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg Config) *SMTPProvider {
	return &SMTPProvider{cfg: cfg, sendMail: smtp.SendMail}
}

func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("%w: no recipients", ErrDeliveryFailed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	from := msg.From
	if from == "" {
		from = p.cfg.From
	}
	body, err := buildMIME(from, msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	if err := p.sendMail(addr, auth, envelopeAddress(p.cfg.From), msg.To, body); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// buildMIME renders a multipart/alternative message with text and html parts.
func buildMIME(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", writer.Boundary())

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=\"UTF-8\"", msg.Text},
		{"text/html; charset=\"UTF-8\"", msg.HTML},
	}
	for _, part := range parts {
		if part.body == "" {
			continue
		}
		w, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// envelopeAddress extracts the bare address from "Name <addr>".
func envelopeAddress(from string) string {
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return strings.TrimSpace(from)
}
