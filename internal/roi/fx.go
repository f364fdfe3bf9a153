package roi

import (
	"github.com/smallbiznis/roi/internal/roi/service"
	"go.uber.org/fx"
)

var Module = fx.Module("roi.service",
	fx.Provide(
		service.NewEngine,
		service.NewService,
	),
)
