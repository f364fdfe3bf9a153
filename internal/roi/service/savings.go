package service

import (
	"strings"

	billingdomain "github.com/smallbiznis/roi/internal/billing/domain"
)

var (
	nonDiscountTypes        = []string{"tax", "shipping", "fee", "adjustment"}
	nonDiscountDescriptions = []string{"tax", "shipping", "fee", "late fee", "setup fee"}
)

// savingsVsList covers every supplied invoice, not only the metrics window.
func (e *Engine) savingsVsList(invoices []billingdomain.Invoice, products []billingdomain.Product) float64 {
	var total float64
	for _, inv := range invoices {
		for _, line := range inv.LineItems {
			total += e.lineSavings(line, products)
		}
	}
	return roundMoney(max(0, total))
}

func (e *Engine) lineSavings(line billingdomain.LineItem, products []billingdomain.Product) float64 {
	if isNonDiscountable(line) {
		return 0
	}
	quantity := max(0, line.Quantity.Float64())
	unitCost := max(0, line.Cost.Float64())
	discount := max(0, line.Discount.Float64())
	if quantity == 0 {
		return 0
	}

	listPrice := e.listPrice(line.ProductKey.String(), products)
	if listPrice <= 0 || listPrice <= unitCost {
		return 0
	}
	perUnit := max(0, listPrice-unitCost-discount)
	savings := min(perUnit*quantity, listPrice*quantity*maxSavingsShare)
	return max(0, savings)
}

// listPrice prefers the first live product with the key when it carries a
// price, then falls back to the static price catalog.
func (e *Engine) listPrice(productKey string, products []billingdomain.Product) float64 {
	if productKey == "" {
		return 0
	}
	for _, p := range products {
		if p.ProductKey.String() != productKey {
			continue
		}
		if price := p.Price.Float64(); price != 0 {
			return price
		}
		break
	}
	price, _ := e.catalogs.ListPrice(productKey)
	return price
}

func isNonDiscountable(line billingdomain.LineItem) bool {
	lineType := strings.TrimSpace(line.TypeID.String())
	if lineType == "" {
		lineType = strings.TrimSpace(line.ProductType.String())
	}
	lineType = strings.ToLower(lineType)
	for _, t := range nonDiscountTypes {
		if lineType == t {
			return true
		}
	}

	description := strings.ToLower(line.Description.String())
	for _, d := range nonDiscountDescriptions {
		if strings.Contains(description, d) {
			return true
		}
	}
	return false
}
