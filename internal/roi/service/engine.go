package service

import (
	billingdomain "github.com/smallbiznis/roi/internal/billing/domain"
	catalogdomain "github.com/smallbiznis/roi/internal/catalog/domain"
	"github.com/smallbiznis/roi/internal/clock"
	roidomain "github.com/smallbiznis/roi/internal/roi/domain"
	"go.uber.org/fx"
)

const (
	metricsWindowMonths = 12
	recentLimit         = 6
	maxSavingsShare     = 0.95
)

type EngineParams struct {
	fx.In

	Clock    clock.Clock
	Catalogs *catalogdomain.Catalogs
}

// Engine derives report figures from already retrieved billing data.
// It performs no I/O and never fails; dirty fields count as zero.
type Engine struct {
	clock    clock.Clock
	catalogs *catalogdomain.Catalogs
}

type Input struct {
	Invoices []billingdomain.Invoice
	Payments []billingdomain.Payment
	Products []billingdomain.Product
}

type Computation struct {
	Metrics        roidomain.Metrics
	RecentInvoices []roidomain.RecentInvoice
	RecentPayments []roidomain.RecentPayment
	Benefits       []roidomain.Benefit
}

func NewEngine(p EngineParams) *Engine {
	return &Engine{
		clock:    p.Clock,
		catalogs: p.Catalogs,
	}
}

func (e *Engine) Compute(in Input) Computation {
	metrics := e.windowMetrics(in.Invoices, in.Payments)
	metrics.SavingsVsList = e.savingsVsList(in.Invoices, in.Products)
	metrics.ShouldBe = e.shouldBePaying(in.Invoices)

	return Computation{
		Metrics:        metrics,
		RecentInvoices: formatInvoices(head(in.Invoices, recentLimit)),
		RecentPayments: formatPayments(head(in.Payments, recentLimit), in.Invoices),
		Benefits:       e.benefits(in.Invoices),
	}
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
