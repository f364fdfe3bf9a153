package email

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ConsoleProvider prints messages instead of delivering them. Development only.
type ConsoleProvider struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *ConsoleProvider {
	return &ConsoleProvider{out: out}
}

func (p *ConsoleProvider) Send(ctx context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := fmt.Fprintf(p.out,
		"\n=== EMAIL (CONSOLE MODE) ===\nTo: %s\nFrom: %s\nSubject: %s\n\n%s\n============================\n\n",
		strings.Join(msg.To, ", "), msg.From, msg.Subject, msg.Text,
	)
	return err
}
