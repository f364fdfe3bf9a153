package magiclink

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/roi/internal/clock"
	"github.com/smallbiznis/roi/internal/config"
	"github.com/smallbiznis/roi/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	tokenBytes = 32
	defaultTTL = 15 * time.Minute
	verifyPath = "/api/verify"
)

var ErrInvalidEmail = errors.New("invalid_email")

// Sender delivers the access link to the requester.
type Sender interface {
	SendMagicLink(ctx context.Context, to, link, expiresIn string) error
}

type Params struct {
	fx.In

	Config config.Config
	Store  Store
	Sender Sender
	Clock  clock.Clock
	Log    *zap.Logger
}

// Service issues single-use, short-lived access tokens bound to an email.
type Service struct {
	store   Store
	sender  Sender
	clock   clock.Clock
	log     *zap.Logger
	ttl     time.Duration
	baseURL string
}

func NewService(p Params) *Service {
	ttl := p.Config.MagicLinkTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{
		store:   p.Store,
		sender:  p.Sender,
		clock:   p.Clock,
		log:     p.Log.Named("magiclink.service"),
		ttl:     ttl,
		baseURL: strings.TrimRight(p.Config.BaseURL, "/"),
	}
}

// ValidEmail is the loose shape check applied before issuing a link.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && strings.Contains(email, "@")
}

func (s *Service) Generate(ctx context.Context, email string) (string, error) {
	if !ValidEmail(email) {
		return "", ErrInvalidEmail
	}

	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(raw)

	link := Link{
		Email:     normalizeEmail(email),
		ExpiresAt: s.clock.Now().Add(s.ttl),
	}
	if err := s.store.Save(ctx, token, link); err != nil {
		return "", err
	}

	logger.WithContext(ctx, s.log).Info("generated magic link", logger.Email(email))
	return token, nil
}

// RequestAccess issues a token and emails the verification link.
func (s *Service) RequestAccess(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	token, err := s.Generate(ctx, email)
	if err != nil {
		return err
	}
	return s.sender.SendMagicLink(ctx, email, s.VerifyURL(token, email), humanizeTTL(s.ttl))
}

func (s *Service) VerifyURL(token, email string) string {
	query := url.Values{}
	query.Set("token", token)
	query.Set("email", email)
	return s.baseURL + verifyPath + "?" + query.Encode()
}

// Check reports whether the token is live for email without consuming it.
func (s *Service) Check(ctx context.Context, token, email string) (bool, error) {
	_, ok, err := s.lookup(ctx, token, email)
	return ok, err
}

// Validate consumes the token. A second call with the same token fails.
func (s *Service) Validate(ctx context.Context, token, email string) (bool, error) {
	_, ok, err := s.lookup(ctx, token, email)
	if err != nil || !ok {
		return false, err
	}

	flipped, err := s.store.MarkUsed(ctx, token)
	if err != nil {
		return false, err
	}
	log := logger.WithContext(ctx, s.log).With(logger.Email(email))
	if !flipped {
		log.Warn("used magic link token attempted")
		return false, nil
	}
	log.Info("magic link validated")
	return true, nil
}

func (s *Service) lookup(ctx context.Context, token, email string) (Link, bool, error) {
	log := logger.WithContext(ctx, s.log).With(logger.Email(email))
	if strings.TrimSpace(token) == "" {
		return Link{}, false, nil
	}

	link, found, err := s.store.Get(ctx, token)
	if err != nil {
		log.Error("magic link lookup failed", zap.Error(err))
		return Link{}, false, err
	}
	switch {
	case !found:
		log.Warn("invalid magic link token attempted")
		return Link{}, false, nil
	case link.Used:
		log.Warn("used magic link token attempted")
		return Link{}, false, nil
	case link.Expired(s.clock.Now()):
		log.Warn("expired magic link token attempted")
		if err := s.store.Delete(ctx, token); err != nil {
			log.Warn("failed to delete expired magic link", zap.Error(err))
		}
		return Link{}, false, nil
	case link.Email != normalizeEmail(email):
		log.Warn("magic link email mismatch")
		return Link{}, false, nil
	}
	return link, true, nil
}

// Cleanup drops expired and used links.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	removed, err := s.store.Sweep(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info("cleaned up expired or used magic links", zap.Int("count", removed))
	}
	return removed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func humanizeTTL(ttl time.Duration) string {
	if ttl%time.Minute == 0 {
		minutes := int(ttl / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	return ttl.String()
}
