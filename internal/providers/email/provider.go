package email

import (
	"context"
	"errors"
)

var ErrDeliveryFailed = errors.New("email_delivery_failed")

type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// NoOpProvider drops every message. Used when delivery is disabled.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, msg Message) error {
	return nil
}
