package service

import (
	"time"

	billingdomain "github.com/smallbiznis/roi/internal/billing/domain"
	roidomain "github.com/smallbiznis/roi/internal/roi/domain"
	"github.com/smallbiznis/roi/pkg/pagination"
)

// windowMetrics re-applies the trailing window to both collections. Records
// without a parseable date fall outside it.
func (e *Engine) windowMetrics(invoices []billingdomain.Invoice, payments []billingdomain.Payment) roidomain.Metrics {
	cutoff := pagination.MonthsBack(e.clock.Now(), metricsWindowMonths)
	inWindow := func(d billingdomain.Date) bool {
		return !d.IsZero() && !d.Time.Before(cutoff)
	}

	var windowInvoices []billingdomain.Invoice
	for _, inv := range invoices {
		if inWindow(inv.Date) {
			windowInvoices = append(windowInvoices, inv)
		}
	}
	var windowPayments []billingdomain.Payment
	for _, p := range payments {
		if inWindow(p.Date) {
			windowPayments = append(windowPayments, p)
		}
	}

	var billed float64
	for _, inv := range windowInvoices {
		billed += inv.Amount.Float64()
	}

	var (
		paid     float64
		onTime   int
		eligible int
	)
	// Only due-dated invoices contribute applied payments and on-time counts.
	for _, inv := range windowInvoices {
		if inv.DueDate.Raw == "" {
			continue
		}
		eligible++

		var applied float64
		var earliest time.Time
		for _, p := range windowPayments {
			for _, app := range p.Invoices {
				if app.InvoiceID == "" || app.InvoiceID != inv.ID {
					continue
				}
				amount := app.Amount.Float64()
				if p.IsRefund() || amount < 0 {
					applied -= abs(amount)
				} else {
					applied += amount
				}
				if earliest.IsZero() || p.Date.Time.Before(earliest) {
					earliest = p.Date.Time
				}
			}
		}
		paid += max(0, applied)

		if !earliest.IsZero() && !inv.DueDate.IsZero() && !earliest.After(inv.DueDate.Time) {
			onTime++
		}
	}

	for _, p := range windowPayments {
		if len(p.Invoices) == 0 && p.IsCredit() && p.Amount.Float64() > 0 {
			paid += p.Amount.Float64()
		}
	}

	var rate float64
	if eligible > 0 {
		rate = float64(onTime) / float64(eligible)
	}

	return roidomain.Metrics{
		Billed12m:  roundMoney(billed),
		Paid12m:    roundMoney(paid),
		OnTimeRate: roundRate(rate),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
