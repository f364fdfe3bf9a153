package service

import (
	"math"
	"sort"

	billingdomain "github.com/smallbiznis/roi/internal/billing/domain"
	roidomain "github.com/smallbiznis/roi/internal/roi/domain"
)

// shouldBePaying prices the purchased quantities under every plan and
// returns the cheapest monthly cost among plans that cover something.
func (e *Engine) shouldBePaying(invoices []billingdomain.Invoice) float64 {
	if e.catalogs == nil {
		return 0
	}

	counts := map[string]float64{}
	for _, inv := range invoices {
		for _, line := range inv.LineItems {
			if key := line.ProductKey.String(); key != "" {
				counts[key] += line.Quantity.Float64()
			}
		}
	}

	names := make([]string, 0, len(e.catalogs.Plans))
	for name := range e.catalogs.Plans {
		names = append(names, name)
	}
	sort.Strings(names)

	best := math.Inf(1)
	for _, name := range names {
		plan := e.catalogs.Plans[name]
		var quantity float64
		for key, count := range counts {
			if plan.IncludesProduct(key) {
				quantity += count
			}
		}
		if quantity <= 0 {
			continue
		}
		if cost := quantity * plan.PerSeat; cost < best {
			best = cost
		}
	}

	if math.IsInf(best, 1) {
		return 0
	}
	return roundMoney(best)
}

// benefits lists catalog bullets for each product key in first-seen order.
func (e *Engine) benefits(invoices []billingdomain.Invoice) []roidomain.Benefit {
	out := []roidomain.Benefit{}
	seen := map[string]struct{}{}
	for _, inv := range invoices {
		for _, line := range inv.LineItems {
			key := line.ProductKey.String()
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if bullets, ok := e.catalogs.BenefitsFor(key); ok {
				out = append(out, roidomain.Benefit{ProductKey: key, Bullets: bullets})
			}
		}
	}
	return out
}
