package domain

import "strings"

type Contact struct {
	Email     FlexString `json:"email"`
	FirstName FlexString `json:"first_name"`
	LastName  FlexString `json:"last_name"`
}

type Client struct {
	ID       FlexString `json:"id"`
	Name     FlexString `json:"name"`
	Contacts []Contact  `json:"contacts"`
}

// PrimaryEmail returns the first non-empty contact email.
func (c Client) PrimaryEmail() string {
	for _, contact := range c.Contacts {
		if email := strings.TrimSpace(contact.Email.String()); email != "" {
			return email
		}
	}
	return ""
}

type LineItem struct {
	ProductKey  FlexString `json:"product_key"`
	Quantity    Amount     `json:"quantity"`
	Cost        Amount     `json:"cost"`
	Discount    Amount     `json:"discount"`
	TypeID      FlexString `json:"type_id"`
	ProductType FlexString `json:"product_type"`
	Description FlexString `json:"description"`
	Notes       FlexString `json:"notes"`
}

type Invoice struct {
	ID        FlexString `json:"id"`
	ClientID  FlexString `json:"client_id"`
	Number    FlexString `json:"number"`
	Date      Date       `json:"date"`
	DueDate   Date       `json:"due_date"`
	Amount    Amount     `json:"amount"`
	Balance   Amount     `json:"balance"`
	StatusID  Code       `json:"status_id"`
	LineItems []LineItem `json:"line_items"`
}

// PaymentApplication is the share of a payment applied to one invoice.
type PaymentApplication struct {
	InvoiceID FlexString `json:"invoice_id"`
	Amount    Amount     `json:"amount"`
}

type Payment struct {
	ID       FlexString           `json:"id"`
	ClientID FlexString           `json:"client_id"`
	Number   FlexString           `json:"number"`
	Date     Date                 `json:"date"`
	Amount   Amount               `json:"amount"`
	Type     FlexString           `json:"type"`
	TypeID   Code                 `json:"type_id"`
	Invoices []PaymentApplication `json:"invoices"`
}

const (
	PaymentTypeRefund = "refund"
	PaymentTypeCredit = "credit"
)

func (p Payment) IsRefund() bool {
	return strings.EqualFold(strings.TrimSpace(p.Type.String()), PaymentTypeRefund)
}

func (p Payment) IsCredit() bool {
	return strings.EqualFold(strings.TrimSpace(p.Type.String()), PaymentTypeCredit)
}

type Product struct {
	ProductKey FlexString `json:"product_key"`
	Price      Amount     `json:"price"`
}
