package domain

import (
	"context"
	"errors"
)

type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeAmbiguous Outcome = "ambiguous"
	OutcomeNotFound  Outcome = "not_found"
)

type ClientSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Candidate is one of several clients an ambiguous email could refer to.
type Candidate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Metrics struct {
	Billed12m     float64 `json:"billed_12m"`
	Paid12m       float64 `json:"paid_12m"`
	OnTimeRate    float64 `json:"on_time_rate"`
	SavingsVsList float64 `json:"savings_vs_list"`
	ShouldBe      float64 `json:"should_be"`
}

type RecentInvoice struct {
	Number  string  `json:"number"`
	Date    string  `json:"date"`
	DueDate string  `json:"due_date"`
	Amount  float64 `json:"amount"`
	Status  string  `json:"status"`
}

type RecentPayment struct {
	Date      string  `json:"date"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	AppliedTo string  `json:"applied_to"`
}

type Benefit struct {
	ProductKey string   `json:"product_key"`
	Bullets    []string `json:"bullets"`
}

// Report is computed per request and never stored.
type Report struct {
	Client         ClientSummary   `json:"client"`
	Metrics        Metrics         `json:"metrics"`
	RecentInvoices []RecentInvoice `json:"recent_invoices"`
	RecentPayments []RecentPayment `json:"recent_payments"`
	Benefits       []Benefit       `json:"benefits"`
}

// Result is exactly one of a report, a candidate list or a not-found message.
type Result struct {
	Outcome    Outcome
	Report     *Report
	Candidates []Candidate
	Message    string
}

// Service computes the ROI report for the client owning an email address.
// Ambiguous and unknown emails are results, not errors; errors are
// billing retrieval failures and abort the whole report.
type Service interface {
	GetClientROI(ctx context.Context, email string) (Result, error)
}

var (
	ErrInvalidEmail = errors.New("invalid_email")
)
