package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	catalogdomain "github.com/smallbiznis/roi/internal/catalog/domain"
	"github.com/smallbiznis/roi/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newStore(paths config.CatalogConfig) *FileStore {
	return NewFileStore(Params{Config: config.Config{Catalog: paths}, Log: zap.NewNop()})
}

func validPaths(t *testing.T) config.CatalogConfig {
	dir := t.TempDir()
	return config.CatalogConfig{
		PricebookPath: writeFile(t, dir, "pricebook.json", `{"products":{"EDR":{"name":"Endpoint Detection","list_price":15}}}`),
		BenefitsPath:  writeFile(t, dir, "benefits.json", `{"benefits":{"EDR":{"bullets":["24/7 monitoring"]}}}`),
		PlanRulesPath: writeFile(t, dir, "plan_rules.yaml", "plans:\n  basic:\n    name: Basic Plan\n    per_seat: 25\n    includes: [EDR]\n"),
	}
}

func TestLoadReadsAllCatalogs(t *testing.T) {
	store := newStore(validPaths(t))

	catalogs, err := store.Load(context.Background())
	require.NoError(t, err)

	price, ok := catalogs.ListPrice("EDR")
	assert.True(t, ok)
	assert.Equal(t, 15.0, price)

	bullets, ok := catalogs.BenefitsFor("EDR")
	assert.True(t, ok)
	assert.Equal(t, []string{"24/7 monitoring"}, bullets)

	plan := catalogs.Plans["basic"]
	assert.Equal(t, 25.0, plan.PerSeat)
	assert.True(t, plan.IncludesProduct("EDR"))
	assert.False(t, plan.IncludesProduct("edr"))
}

func TestLoadIsCachedAfterFirstSuccess(t *testing.T) {
	paths := validPaths(t)
	store := newStore(paths)

	first, err := store.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(paths.PricebookPath))
	second, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestConcurrentFirstLoadsAgree(t *testing.T) {
	store := newStore(validPaths(t))

	var wg sync.WaitGroup
	results := make([]*catalogdomain.Catalogs, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := store.Load(context.Background())
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range results {
		assert.Same(t, results[0], c)
	}
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, p *config.CatalogConfig)
	}{
		{
			name: "missing file",
			mutate: func(t *testing.T, p *config.CatalogConfig) {
				p.BenefitsPath = filepath.Join(t.TempDir(), "nope.json")
			},
		},
		{
			name: "malformed json",
			mutate: func(t *testing.T, p *config.CatalogConfig) {
				p.PricebookPath = writeFile(t, t.TempDir(), "pricebook.json", `{"products":`)
			},
		},
		{
			name: "missing section",
			mutate: func(t *testing.T, p *config.CatalogConfig) {
				p.PlanRulesPath = writeFile(t, t.TempDir(), "plan_rules.json", `{"tiers":{}}`)
			},
		},
		{
			name: "empty path",
			mutate: func(t *testing.T, p *config.CatalogConfig) {
				p.PricebookPath = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := validPaths(t)
			tt.mutate(t, &paths)

			_, err := newStore(paths).Load(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, catalogdomain.ErrCatalogLoad)
		})
	}
}
