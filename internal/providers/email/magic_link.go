package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/smallbiznis/roi/internal/config"
	"github.com/smallbiznis/roi/internal/observability/logger"
	"go.uber.org/zap"
)

const magicLinkSubject = "Your ROI Analysis Access Link"

//go:embed templates/*
var templateFS embed.FS

var (
	magicLinkHTML = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/magic_link.html"))
	magicLinkText = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/magic_link.txt"))
)

type magicLinkData struct {
	Email     string
	Link      string
	ExpiresIn string
}

// Mailer sends the access emails of the portal through a Provider.
type Mailer struct {
	provider Provider
	from     string
	log      *zap.Logger
}

func NewMailer(provider Provider, cfg config.Config, log *zap.Logger) *Mailer {
	return &Mailer{
		provider: provider,
		from:     fmt.Sprintf("%s <%s>", cfg.Email.FromName, cfg.Email.FromEmail),
		log:      log.Named("email.mailer"),
	}
}

func (m *Mailer) SendMagicLink(ctx context.Context, to, link, expiresIn string) error {
	data := magicLinkData{Email: to, Link: link, ExpiresIn: expiresIn}

	var html, text bytes.Buffer
	if err := magicLinkHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("render magic link html: %w", err)
	}
	if err := magicLinkText.Execute(&text, data); err != nil {
		return fmt.Errorf("render magic link text: %w", err)
	}

	log := logger.WithContext(ctx, m.log).With(logger.Email(to))
	err := m.provider.Send(ctx, Message{
		From:    m.from,
		To:      []string{to},
		Subject: magicLinkSubject,
		HTML:    html.String(),
		Text:    text.String(),
	})
	if err != nil {
		log.Error("failed to send magic link email", zap.Error(err))
		return err
	}
	log.Info("magic link email sent")
	return nil
}
