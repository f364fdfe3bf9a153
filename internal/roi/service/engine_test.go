package service

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	billingdomain "github.com/smallbiznis/roi/internal/billing/domain"
	catalogdomain "github.com/smallbiznis/roi/internal/catalog/domain"
	"github.com/smallbiznis/roi/internal/clock"
	roidomain "github.com/smallbiznis/roi/internal/roi/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var engineNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func testCatalogs() *catalogdomain.Catalogs {
	return &catalogdomain.Catalogs{
		Prices: catalogdomain.PriceCatalog{
			"EDR":    {Name: "Endpoint Detection", ListPrice: 15},
			"MDM":    {Name: "Mobile Device Management", ListPrice: 8},
			"BACKUP": {Name: "Cloud Backup", ListPrice: 12},
		},
		Benefits: catalogdomain.BenefitCatalog{
			"EDR":    {Bullets: []string{"24/7 monitoring"}},
			"MDM":    {Bullets: []string{"Remote wipe"}},
			"BACKUP": {Bullets: []string{"Daily offsite backups"}},
		},
		Plans: catalogdomain.PlanRules{
			"basic":    {Name: "Basic", PerSeat: 25, Includes: []string{"EDR"}},
			"standard": {Name: "Standard", PerSeat: 40, Includes: []string{"EDR", "MDM"}},
			"complete": {Name: "Complete", PerSeat: 55, Includes: []string{"EDR", "MDM", "BACKUP"}},
		},
	}
}

func newTestEngine() *Engine {
	return NewEngine(EngineParams{
		Clock:    clock.NewFakeClock(engineNow),
		Catalogs: testCatalogs(),
	})
}

func monthsAgo(n int) string {
	return engineNow.AddDate(0, -n, 0).Format(time.DateOnly)
}

func invoice(id, date, due string, amount float64, lines ...billingdomain.LineItem) billingdomain.Invoice {
	return billingdomain.Invoice{
		ID:        billingdomain.FlexString(id),
		Number:    billingdomain.FlexString("N-" + id),
		Date:      billingdomain.ParseDate(date),
		DueDate:   billingdomain.ParseDate(due),
		Amount:    billingdomain.Amount(amount),
		LineItems: lines,
	}
}

func line(key string, quantity, cost, discount float64) billingdomain.LineItem {
	return billingdomain.LineItem{
		ProductKey: billingdomain.FlexString(key),
		Quantity:   billingdomain.Amount(quantity),
		Cost:       billingdomain.Amount(cost),
		Discount:   billingdomain.Amount(discount),
	}
}

func payment(id, date, kind string, amount float64, apps ...billingdomain.PaymentApplication) billingdomain.Payment {
	return billingdomain.Payment{
		ID:       billingdomain.FlexString(id),
		Date:     billingdomain.ParseDate(date),
		Type:     billingdomain.FlexString(kind),
		Amount:   billingdomain.Amount(amount),
		Invoices: apps,
	}
}

func applied(invoiceID string, amount float64) billingdomain.PaymentApplication {
	return billingdomain.PaymentApplication{
		InvoiceID: billingdomain.FlexString(invoiceID),
		Amount:    billingdomain.Amount(amount),
	}
}

func TestComputeEDRScenario(t *testing.T) {
	engine := newTestEngine()

	out := engine.Compute(Input{
		Invoices: []billingdomain.Invoice{
			invoice("1", monthsAgo(6), monthsAgo(6), 100, line("EDR", 10, 10, 0)),
		},
	})

	assert.Equal(t, 50.0, out.Metrics.SavingsVsList)
	assert.Equal(t, 100.0, out.Metrics.Billed12m)
	assert.Equal(t, 250.0, out.Metrics.ShouldBe)
	assert.Zero(t, out.Metrics.OnTimeRate)
}

func TestPaidNetsRefunds(t *testing.T) {
	engine := newTestEngine()
	invoices := []billingdomain.Invoice{invoice("1", monthsAgo(3), monthsAgo(2), 100)}

	cases := []struct {
		name     string
		payments []billingdomain.Payment
		want     float64
	}{
		{
			name: "refund of twenty",
			payments: []billingdomain.Payment{
				payment("p1", monthsAgo(3), "", 100, applied("1", 100)),
				payment("p2", monthsAgo(2), "refund", -20, applied("1", -20)),
			},
			want: 80,
		},
		{
			name: "refund type with positive application",
			payments: []billingdomain.Payment{
				payment("p1", monthsAgo(3), "", 100, applied("1", 100)),
				payment("p2", monthsAgo(2), "refund", 20, applied("1", 20)),
			},
			want: 80,
		},
		{
			name: "refund larger than payments clamps to zero",
			payments: []billingdomain.Payment{
				payment("p1", monthsAgo(3), "", 10, applied("1", 10)),
				payment("p2", monthsAgo(2), "refund", -50, applied("1", -50)),
			},
			want: 0,
		},
		{
			name: "unapplied credit counts",
			payments: []billingdomain.Payment{
				payment("p1", monthsAgo(1), "credit", 30),
				payment("p2", monthsAgo(1), "credit", -5),
				payment("p3", monthsAgo(1), "", 40),
			},
			want: 30,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := engine.Compute(Input{Invoices: invoices, Payments: tc.payments})
			assert.Equal(t, tc.want, out.Metrics.Paid12m)
			assert.GreaterOrEqual(t, out.Metrics.Paid12m, 0.0)
		})
	}
}

func TestPaymentsOnInvoicesWithoutDueDateAreIgnored(t *testing.T) {
	engine := newTestEngine()

	out := engine.Compute(Input{
		Invoices: []billingdomain.Invoice{invoice("1", monthsAgo(3), "", 100)},
		Payments: []billingdomain.Payment{payment("p1", monthsAgo(3), "", 100, applied("1", 100))},
	})

	assert.Equal(t, 100.0, out.Metrics.Billed12m)
	assert.Zero(t, out.Metrics.Paid12m)
	assert.Zero(t, out.Metrics.OnTimeRate)
}

func TestOnTimeRate(t *testing.T) {
	engine := newTestEngine()

	out := engine.Compute(Input{
		Invoices: []billingdomain.Invoice{
			invoice("1", monthsAgo(5), monthsAgo(4), 100),
			invoice("2", monthsAgo(5), monthsAgo(4), 100),
			invoice("3", monthsAgo(5), monthsAgo(4), 100),
			invoice("4", monthsAgo(5), "", 100),
		},
		Payments: []billingdomain.Payment{
			payment("p1", monthsAgo(4), "", 100, applied("1", 100)),
			payment("p2", monthsAgo(2), "", 100, applied("2", 100)),
			payment("p3", monthsAgo(4), "", 100, applied("4", 100)),
		},
	})

	// 1 of 3 due-dated invoices paid by its due date.
	assert.Equal(t, 0.333, out.Metrics.OnTimeRate)
	assert.Equal(t, 200.0, out.Metrics.Paid12m)
}

func TestOnTimeUsesEarliestPayment(t *testing.T) {
	engine := newTestEngine()

	out := engine.Compute(Input{
		Invoices: []billingdomain.Invoice{invoice("1", monthsAgo(5), monthsAgo(4), 100)},
		Payments: []billingdomain.Payment{
			payment("late", monthsAgo(1), "", 50, applied("1", 50)),
			payment("early", monthsAgo(5), "", 50, applied("1", 50)),
		},
	})

	assert.Equal(t, 1.0, out.Metrics.OnTimeRate)
}

func TestOnTimeRateIsZeroWithoutEligibleInvoices(t *testing.T) {
	engine := newTestEngine()

	out := engine.Compute(Input{
		Invoices: []billingdomain.Invoice{invoice("1", monthsAgo(1), "", 100)},
		Payments: []billingdomain.Payment{payment("p1", monthsAgo(1), "credit", 100)},
	})

	assert.Zero(t, out.Metrics.OnTimeRate)
}

func TestMetricsWindowBoundaryIsInclusive(t *testing.T) {
	engine := newTestEngine()

	out := engine.Compute(Input{
		Invoices: []billingdomain.Invoice{
			invoice("edge", "2024-06-15", "", 10),
			invoice("old", "2024-06-14", "", 1000),
			invoice("undated", "", "", 500),
		},
	})

	assert.Equal(t, 10.0, out.Metrics.Billed12m)
}

func TestSavingsCappedAtShareOfList(t *testing.T) {
	engine := newTestEngine()

	out := engine.Compute(Input{
		Invoices: []billingdomain.Invoice{invoice("1", monthsAgo(1), "", 0, line("EDR", 2, 0, 0))},
	})

	// (15 - 0) * 2 = 30 exceeds 0.95 * 15 * 2.
	assert.Equal(t, 28.5, out.Metrics.SavingsVsList)
}

func TestSavingsSkipsLines(t *testing.T) {
	engine := newTestEngine()

	taxLine := line("EDR", 10, 1, 0)
	taxLine.TypeID = "TAX"
	shippingLine := line("EDR", 10, 1, 0)
	shippingLine.ProductType = "shipping"
	feeLine := line("EDR", 10, 1, 0)
	feeLine.Description = "Monthly Late Fee"

	cases := []struct {
		name string
		line billingdomain.LineItem
	}{
		{name: "tax type", line: taxLine},
		{name: "shipping product type", line: shippingLine},
		{name: "fee description", line: feeLine},
		{name: "cost above list", line: line("EDR", 10, 20, 0)},
		{name: "zero quantity", line: line("EDR", 0, 1, 0)},
		{name: "negative quantity", line: line("EDR", -3, 1, 0)},
		{name: "unknown product", line: line("NOPE", 10, 1, 0)},
		{name: "no product key", line: line("", 10, 1, 0)},
		{name: "discount exceeds gap", line: line("EDR", 10, 10, 8)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := engine.Compute(Input{
				Invoices: []billingdomain.Invoice{invoice("1", monthsAgo(1), "", 0, tc.line)},
			})
			assert.Zero(t, out.Metrics.SavingsVsList)
		})
	}
}

func TestSavingsPrefersLiveProductPrice(t *testing.T) {
	engine := newTestEngine()
	invoices := []billingdomain.Invoice{invoice("1", monthsAgo(1), "", 0, line("EDR", 10, 10, 1))}

	live := engine.Compute(Input{
		Invoices: invoices,
		Products: []billingdomain.Product{{ProductKey: "EDR", Price: 20}},
	})
	assert.Equal(t, 90.0, live.Metrics.SavingsVsList)

	fallback := engine.Compute(Input{
		Invoices: invoices,
		Products: []billingdomain.Product{{ProductKey: "EDR", Price: 0}},
	})
	assert.Equal(t, 40.0, fallback.Metrics.SavingsVsList)
}

func TestSavingsIncludesInvoicesOutsideWindow(t *testing.T) {
	engine := newTestEngine()

	out := engine.Compute(Input{
		Invoices: []billingdomain.Invoice{invoice("1", monthsAgo(20), "", 0, line("MDM", 5, 6, 0))},
	})

	assert.Equal(t, 10.0, out.Metrics.SavingsVsList)
	assert.Zero(t, out.Metrics.Billed12m)
}

func TestSavingsBounds(t *testing.T) {
	engine := newTestEngine()
	products := []billingdomain.Product{{ProductKey: "EDR", Price: 15}}

	for _, cost := range []float64{-5, 0, 0.5, 3, 7.25, 14.99, 15, 40} {
		for _, quantity := range []float64{1, 3, 12.5} {
			for _, discount := range []float64{-1, 0, 2, 20} {
				got := engine.lineSavings(line("EDR", quantity, cost, discount), products)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, 0.95*15*quantity+1e-9)
			}
		}
	}
}

func TestShouldBePicksCheapestPlan(t *testing.T) {
	engine := newTestEngine()

	cases := []struct {
		name  string
		lines []billingdomain.LineItem
		want  float64
	}{
		{
			name:  "edr only fits basic",
			lines: []billingdomain.LineItem{line("EDR", 10, 0, 0), line("MDM", 2, 0, 0)},
			want:  250,
		},
		{
			name:  "backup only fits complete",
			lines: []billingdomain.LineItem{line("BACKUP", 4, 0, 0)},
			want:  220,
		},
		{
			name:  "mdm only fits standard first",
			lines: []billingdomain.LineItem{line("MDM", 3, 0, 0)},
			want:  120,
		},
		{
			name:  "no intersection",
			lines: []billingdomain.LineItem{line("OTHER", 7, 0, 0)},
			want:  0,
		},
		{
			name:  "net zero quantity",
			lines: []billingdomain.LineItem{line("EDR", 2, 0, 0), line("EDR", -2, 0, 0)},
			want:  0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := engine.Compute(Input{
				Invoices: []billingdomain.Invoice{invoice("1", monthsAgo(1), "", 0, tc.lines...)},
			})
			assert.Equal(t, tc.want, out.Metrics.ShouldBe)
		})
	}
}

func TestBenefitsDedupedInFirstSeenOrder(t *testing.T) {
	engine := newTestEngine()

	out := engine.Compute(Input{
		Invoices: []billingdomain.Invoice{
			invoice("1", monthsAgo(1), "", 0, line("MDM", 1, 0, 0), line("UNKNOWN", 1, 0, 0)),
			invoice("2", monthsAgo(2), "", 0, line("EDR", 1, 0, 0), line("MDM", 1, 0, 0)),
		},
	})

	require.Len(t, out.Benefits, 2)
	assert.Equal(t, "MDM", out.Benefits[0].ProductKey)
	assert.Equal(t, "EDR", out.Benefits[1].ProductKey)
	assert.Equal(t, []string{"24/7 monitoring"}, out.Benefits[1].Bullets)
}

func TestRecentRecordsFormatting(t *testing.T) {
	engine := newTestEngine()

	var invoices []billingdomain.Invoice
	for i, status := range []billingdomain.Code{6, 2, 9, 1, 5, 4, 3, 3} {
		inv := invoice(string(rune('a'+i)), monthsAgo(i), monthsAgo(i), 10.005)
		inv.StatusID = status
		invoices = append(invoices, inv)
	}
	payments := []billingdomain.Payment{
		payment("p1", monthsAgo(1), "", 12.345, applied("b", 12.345)),
		payment("p2", monthsAgo(1), "", 5),
		payment("p3", monthsAgo(1), "", 5, applied("zzz", 5)),
	}
	payments[0].TypeID = 2
	payments[2].TypeID = 42

	out := engine.Compute(Input{Invoices: invoices, Payments: payments})

	require.Len(t, out.RecentInvoices, 6)
	assert.Equal(t, roidomain.RecentInvoice{
		Number:  "N-a",
		Date:    monthsAgo(0),
		DueDate: monthsAgo(0),
		Amount:  10.01,
		Status:  "paid",
	}, out.RecentInvoices[0])
	assert.Equal(t, "unknown", out.RecentInvoices[2].Status)

	require.Len(t, out.RecentPayments, 3)
	assert.Equal(t, roidomain.RecentPayment{
		Date:      monthsAgo(1),
		Amount:    12.35,
		Method:    "bank_transfer",
		AppliedTo: "N-b",
	}, out.RecentPayments[0])
	assert.Equal(t, "N/A", out.RecentPayments[1].AppliedTo)
	assert.Equal(t, "unknown", out.RecentPayments[1].Method)
	assert.Equal(t, "N/A", out.RecentPayments[2].AppliedTo)
	assert.Equal(t, "unknown", out.RecentPayments[2].Method)
}

func TestComputeToleratesEmptyInput(t *testing.T) {
	engine := newTestEngine()

	out := engine.Compute(Input{})

	assert.Equal(t, roidomain.Metrics{}, out.Metrics)
	assert.NotNil(t, out.RecentInvoices)
	assert.NotNil(t, out.RecentPayments)
	assert.NotNil(t, out.Benefits)
}

func TestComputeTreatsNonFiniteNumbersAsZero(t *testing.T) {
	engine := newTestEngine()

	payload := `{"id": "9", "number": "N-9", "date": "` + monthsAgo(2) + `", "due_date": "` + monthsAgo(1) + `",
		"amount": "NaN", "line_items": [{"product_key": "EDR", "quantity": "inf", "cost": "Infinity", "discount": "-Inf"}]}`
	var inv billingdomain.Invoice
	require.NoError(t, json.Unmarshal([]byte(payload), &inv))
	assert.Zero(t, inv.Amount.Float64())
	assert.Zero(t, inv.LineItems[0].Quantity.Float64())
	assert.Zero(t, inv.LineItems[0].Cost.Float64())

	var out Computation
	require.NotPanics(t, func() {
		out = engine.Compute(Input{Invoices: []billingdomain.Invoice{inv}})
	})
	assert.Zero(t, out.Metrics.Billed12m)
	assert.Zero(t, out.Metrics.SavingsVsList)
	require.Len(t, out.RecentInvoices, 1)
	assert.Zero(t, out.RecentInvoices[0].Amount)
}

func TestComputeSurvivesOverflowingQuantities(t *testing.T) {
	engine := newTestEngine()

	var out Computation
	require.NotPanics(t, func() {
		out = engine.Compute(Input{
			Invoices: []billingdomain.Invoice{
				invoice("1", monthsAgo(3), monthsAgo(2), 100, line("EDR", 1e308, 1, 0), line("EDR", 1e308, 1, 0)),
			},
		})
	})

	for _, v := range []float64{
		out.Metrics.Billed12m, out.Metrics.Paid12m, out.Metrics.OnTimeRate,
		out.Metrics.SavingsVsList, out.Metrics.ShouldBe,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "metric %v is not finite", v)
	}
	assert.Equal(t, 100.0, out.Metrics.Billed12m)
}

func TestRoundingNonFinite(t *testing.T) {
	assert.Zero(t, roundMoney(math.NaN()))
	assert.Zero(t, roundMoney(math.Inf(1)))
	assert.Zero(t, roundRate(math.Inf(-1)))
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 0.667, roundRate(2.0/3.0))
	assert.Equal(t, 0.13, roundMoney(0.125))
	assert.Equal(t, 1.01, roundMoney(1.005))
	assert.Equal(t, -1.0, roundMoney(-1.005))
	assert.Equal(t, 100.0, roundMoney(99.999))
}
