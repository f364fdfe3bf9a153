package invoiceninja

import (
	billingdomain "github.com/smallbiznis/roi/internal/billing/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.invoiceninja",
	fx.Provide(
		NewClient,
		func(c *Client) billingdomain.Source { return c },
	),
)
