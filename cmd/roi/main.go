package main

import (
	"github.com/smallbiznis/roi/internal/auth/magiclink"
	"github.com/smallbiznis/roi/internal/billing/invoiceninja"
	"github.com/smallbiznis/roi/internal/cache"
	"github.com/smallbiznis/roi/internal/catalog"
	"github.com/smallbiznis/roi/internal/clock"
	"github.com/smallbiznis/roi/internal/config"
	"github.com/smallbiznis/roi/internal/observability"
	"github.com/smallbiznis/roi/internal/providers/email"
	"github.com/smallbiznis/roi/internal/ratelimit"
	"github.com/smallbiznis/roi/internal/roi"
	"github.com/smallbiznis/roi/internal/server"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		fx.Invoke(validateConfig),
		observability.Module,
		clock.Module,
		cache.Module,

		// Functional Domains
		catalog.Module,
		invoiceninja.Module,
		roi.Module,
		email.Module,
		magiclink.Module,
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

// validateConfig stops startup when the billing API is not configured.
func validateConfig(cfg config.Config) error {
	return cfg.Validate()
}
