package email

import (
	"os"

	"github.com/smallbiznis/roi/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(
		NewFromConfig,
		NewMailer,
	),
)

// NewFromConfig picks the delivery mode. An unset mode sends through SMTP
// only in production with a configured host; everything else prints.
func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	log = log.Named("email.provider")
	smtpConfigured := cfg.Email.SMTPHost != ""

	switch {
	case cfg.Email.Delivery == config.EmailDeliveryDisabled:
		log.Info("email delivery disabled")
		return &NoOpProvider{}
	case smtpConfigured && (cfg.Email.Delivery == config.EmailDeliveryEnabled ||
		(cfg.Email.Delivery == "" && cfg.IsProduction())):
		log.Info("email delivery via smtp", zap.String("host", cfg.Email.SMTPHost))
		return NewSMTP(Config{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.FromEmail,
		})
	default:
		log.Info("email delivery in console mode")
		return NewConsole(os.Stdout)
	}
}
