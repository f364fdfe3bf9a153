package service

import (
	"context"
	"errors"
	"strings"
	"time"

	billingdomain "github.com/smallbiznis/roi/internal/billing/domain"
	"github.com/smallbiznis/roi/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/roi/internal/observability/metrics"
	roidomain "github.com/smallbiznis/roi/internal/roi/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	historyLimit  = 12
	historyMonths = 12
)

type Params struct {
	fx.In

	Source  billingdomain.Source
	Engine  *Engine
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	source  billingdomain.Source
	engine  *Engine
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func NewService(p Params) roidomain.Service {
	return &Service{
		source:  p.Source,
		engine:  p.Engine,
		log:     p.Log.Named("roi.service"),
		metrics: p.Metrics,
	}
}

func (s *Service) GetClientROI(ctx context.Context, email string) (result roidomain.Result, err error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return roidomain.Result{}, roidomain.ErrInvalidEmail
	}

	start := time.Now()
	log := logger.WithContext(ctx, s.log).With(logger.Email(email))
	defer func() {
		s.metrics.RecordReport(ctx, reportOutcome(result, err), time.Since(start))
	}()

	log.Info("starting roi analysis")

	match, err := s.source.ResolveClient(ctx, email)
	if err != nil {
		log.Error("client resolution failed", zap.Error(err))
		return roidomain.Result{}, err
	}

	switch match.Outcome {
	case billingdomain.MatchAmbiguous:
		return roidomain.Result{
			Outcome:    roidomain.OutcomeAmbiguous,
			Candidates: candidates(match.Candidates),
			Message:    match.Reason,
		}, nil
	case billingdomain.MatchUnique:
	default:
		return roidomain.Result{
			Outcome: roidomain.OutcomeNotFound,
			Message: match.Reason,
		}, nil
	}

	client := match.Client
	clientID := client.ID.String()

	var (
		invoices []billingdomain.Invoice
		payments []billingdomain.Payment
		products []billingdomain.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoices, err = s.source.FetchInvoices(gctx, clientID, historyLimit, historyMonths)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.source.FetchPayments(gctx, clientID, historyLimit, historyMonths)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.source.FetchProducts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("billing retrieval failed", zap.String("client_id", clientID), zap.Error(err))
		return roidomain.Result{}, err
	}

	computed := s.engine.Compute(Input{
		Invoices: invoices,
		Payments: payments,
		Products: products,
	})

	log.Info("roi analysis completed",
		zap.String("client_id", clientID),
		zap.Int("invoices", len(invoices)),
		zap.Int("payments", len(payments)),
	)

	return roidomain.Result{
		Outcome: roidomain.OutcomeSuccess,
		Report: &roidomain.Report{
			Client: roidomain.ClientSummary{
				ID:    clientID,
				Name:  client.Name.String(),
				Email: email,
			},
			Metrics:        computed.Metrics,
			RecentInvoices: computed.RecentInvoices,
			RecentPayments: computed.RecentPayments,
			Benefits:       computed.Benefits,
		},
	}, nil
}

func candidates(clients []billingdomain.Client) []roidomain.Candidate {
	out := make([]roidomain.Candidate, 0, len(clients))
	for _, c := range clients {
		var email string
		if len(c.Contacts) > 0 {
			email = c.Contacts[0].Email.String()
		}
		out = append(out, roidomain.Candidate{
			ID:    c.ID.String(),
			Name:  c.Name.String(),
			Email: email,
		})
	}
	return out
}

func reportOutcome(result roidomain.Result, err error) string {
	switch {
	case err == nil:
		return string(result.Outcome)
	case errors.Is(err, billingdomain.ErrAuthentication):
		return "auth_failed"
	case errors.Is(err, roidomain.ErrInvalidEmail):
		return "invalid_email"
	default:
		return "error"
	}
}
