package catalog

import (
	"context"

	catalogdomain "github.com/smallbiznis/roi/internal/catalog/domain"
	"github.com/smallbiznis/roi/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog",
	fx.Provide(
		service.NewFileStore,
		func(s *service.FileStore) catalogdomain.Store { return s },
		loadAtStartup,
	),
)

// loadAtStartup makes a missing or malformed catalog abort application start.
func loadAtStartup(store catalogdomain.Store) (*catalogdomain.Catalogs, error) {
	return store.Load(context.Background())
}
