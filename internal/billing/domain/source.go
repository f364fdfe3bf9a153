package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAuthentication reports a 401 from the invoicing platform: bad token or missing permissions.
	ErrAuthentication = errors.New("upstream_authentication_failed")
	// ErrUpstream is the family of every other failure talking to the platform.
	ErrUpstream = errors.New("upstream_error")
)

// UpstreamError carries the endpoint and status of a failed platform call.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %s returned %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

// Source retrieves a client's billing history from the invoicing platform.
// Implementations do not retry.
type Source interface {
	ResolveClient(ctx context.Context, email string) (ClientMatch, error)
	// FetchInvoices returns at most limit invoices dated within monthsBack months, newest first.
	FetchInvoices(ctx context.Context, clientID string, limit, monthsBack int) ([]Invoice, error)
	// FetchPayments returns at most limit of the client's payments within monthsBack months, newest first.
	FetchPayments(ctx context.Context, clientID string, limit, monthsBack int) ([]Payment, error)
	FetchProducts(ctx context.Context) ([]Product, error)
}
