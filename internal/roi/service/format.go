package service

import (
	"math"

	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/roi/internal/billing/domain"
	roidomain "github.com/smallbiznis/roi/internal/roi/domain"
)

const (
	unknownLabel  = "unknown"
	notApplicable = "N/A"
)

var invoiceStatuses = map[billingdomain.Code]string{
	1: "draft",
	2: "sent",
	3: "viewed",
	4: "approved",
	5: "partial",
	6: "paid",
}

var paymentMethods = map[billingdomain.Code]string{
	1: "credit_card",
	2: "bank_transfer",
	3: "paypal",
	4: "cash",
	5: "check",
	6: "credit",
}

var half = decimal.NewFromFloat(0.5)

// roundHalfUp rounds ties toward positive infinity on the exact decimal
// value. Non-finite input, e.g. from overflowing quantities, rounds to 0.
func roundHalfUp(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	rounded, _ := decimal.NewFromFloat(v).Shift(places).Add(half).Floor().Shift(-places).Float64()
	return rounded
}

func roundMoney(v float64) float64 { return roundHalfUp(v, 2) }

func roundRate(v float64) float64 { return roundHalfUp(v, 3) }

func lookup(table map[billingdomain.Code]string, code billingdomain.Code) string {
	if label, ok := table[code]; ok {
		return label
	}
	return unknownLabel
}

func formatInvoices(invoices []billingdomain.Invoice) []roidomain.RecentInvoice {
	out := make([]roidomain.RecentInvoice, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, roidomain.RecentInvoice{
			Number:  inv.Number.String(),
			Date:    inv.Date.Raw,
			DueDate: inv.DueDate.Raw,
			Amount:  roundMoney(inv.Amount.Float64()),
			Status:  lookup(invoiceStatuses, inv.StatusID),
		})
	}
	return out
}

// formatPayments resolves applied_to against every retrieved invoice.
func formatPayments(payments []billingdomain.Payment, invoices []billingdomain.Invoice) []roidomain.RecentPayment {
	numbers := make(map[billingdomain.FlexString]string, len(invoices))
	for _, inv := range invoices {
		if _, ok := numbers[inv.ID]; !ok && inv.ID != "" {
			numbers[inv.ID] = inv.Number.String()
		}
	}

	out := make([]roidomain.RecentPayment, 0, len(payments))
	for _, p := range payments {
		appliedTo := notApplicable
		if len(p.Invoices) > 0 {
			if number, ok := numbers[p.Invoices[0].InvoiceID]; ok {
				appliedTo = number
			}
		}
		out = append(out, roidomain.RecentPayment{
			Date:      p.Date.Raw,
			Amount:    roundMoney(p.Amount.Float64()),
			Method:    lookup(paymentMethods, p.TypeID),
			AppliedTo: appliedTo,
		})
	}
	return out
}
