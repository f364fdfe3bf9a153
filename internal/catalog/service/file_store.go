package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	catalogdomain "github.com/smallbiznis/roi/internal/catalog/domain"
	"github.com/smallbiznis/roi/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

// FileStore reads the three catalogs from disk on first use.
type FileStore struct {
	paths  config.CatalogConfig
	log    *zap.Logger
	loaded atomic.Pointer[catalogdomain.Catalogs]
}

func NewFileStore(p Params) *FileStore {
	return &FileStore{
		paths: p.Config.Catalog,
		log:   p.Log.Named("catalog.store"),
	}
}

// Load is idempotent. Concurrent first calls may each read the files; the
// first published result wins and every caller sees equivalent data.
func (s *FileStore) Load(ctx context.Context) (*catalogdomain.Catalogs, error) {
	if cached := s.loaded.Load(); cached != nil {
		return cached, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pricebook struct {
		Products catalogdomain.PriceCatalog `json:"products" yaml:"products"`
	}
	if err := readCatalog("pricebook", s.paths.PricebookPath, &pricebook); err != nil {
		return nil, err
	}
	if pricebook.Products == nil {
		return nil, missingKey("pricebook", "products")
	}

	var benefits struct {
		Benefits catalogdomain.BenefitCatalog `json:"benefits" yaml:"benefits"`
	}
	if err := readCatalog("benefits", s.paths.BenefitsPath, &benefits); err != nil {
		return nil, err
	}
	if benefits.Benefits == nil {
		return nil, missingKey("benefits", "benefits")
	}

	var planRules struct {
		Plans catalogdomain.PlanRules `json:"plans" yaml:"plans"`
	}
	if err := readCatalog("plan rules", s.paths.PlanRulesPath, &planRules); err != nil {
		return nil, err
	}
	if planRules.Plans == nil {
		return nil, missingKey("plan rules", "plans")
	}

	catalogs := &catalogdomain.Catalogs{
		Prices:   pricebook.Products,
		Benefits: benefits.Benefits,
		Plans:    planRules.Plans,
	}
	if !s.loaded.CompareAndSwap(nil, catalogs) {
		return s.loaded.Load(), nil
	}

	s.log.Info("catalogs loaded",
		zap.Int("products", len(catalogs.Prices)),
		zap.Int("benefits", len(catalogs.Benefits)),
		zap.Int("plans", len(catalogs.Plans)),
	)
	return catalogs, nil
}

func readCatalog(name, path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%w: %s path is empty", catalogdomain.ErrCatalogLoad, name)
	}
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%w: read %s %q: %v", catalogdomain.ErrCatalogLoad, name, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, out)
	default:
		err = json.Unmarshal(raw, out)
	}
	if err != nil {
		return fmt.Errorf("%w: parse %s %q: %v", catalogdomain.ErrCatalogLoad, name, path, err)
	}
	return nil
}

func missingKey(name, key string) error {
	return fmt.Errorf("%w: %s has no %q section", catalogdomain.ErrCatalogLoad, name, key)
}
