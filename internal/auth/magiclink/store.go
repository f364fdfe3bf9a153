package magiclink

import (
	"context"
	"errors"
	"time"
)

var ErrStoreUnavailable = errors.New("magic_link_store_unavailable")

// Link is the server-side record behind an emailed token.
type Link struct {
	Email     string
	ExpiresAt time.Time
	Used      bool
}

func (l Link) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

type Store interface {
	Save(ctx context.Context, token string, link Link) error
	Get(ctx context.Context, token string) (Link, bool, error)
	// MarkUsed flips the used flag and reports whether this call flipped it.
	MarkUsed(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) error
	// Sweep removes expired and used links, returning how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
