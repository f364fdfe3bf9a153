package invoiceninja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	billingdomain "github.com/smallbiznis/roi/internal/billing/domain"
	"github.com/smallbiznis/roi/internal/clock"
	"github.com/smallbiznis/roi/internal/config"
	"github.com/smallbiznis/roi/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/roi/internal/observability/metrics"
	"github.com/smallbiznis/roi/internal/observability/tracing"
	"github.com/smallbiznis/roi/pkg/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	pageSize        = 50
	clientPageSize  = 50
	productPageSize = 100
	maxErrorBody    = 4 << 10

	endpointClients  = "/clients"
	endpointInvoices = "/invoices"
	endpointPayments = "/payments"
	endpointProducts = "/products"
)

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
	HTTP    *http.Client        `optional:"true"`
}

// Client talks to the Invoice Ninja v1 API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
	clock   clock.Clock
	metrics *obsmetrics.Metrics
}

type envelope[T any] struct {
	Data []T `json:"data"`
}

func NewClient(p Params) *Client {
	httpClient := p.HTTP
	if httpClient == nil {
		timeout := p.Config.InvoiceNinja.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(p.Config.InvoiceNinja.BaseURL, "/") + "/api/v1",
		token:   p.Config.InvoiceNinja.APIToken,
		http:    httpClient,
		log:     p.Log.Named("invoiceninja.client"),
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

func (c *Client) ResolveClient(ctx context.Context, email string) (billingdomain.ClientMatch, error) {
	log := logger.WithContext(ctx, c.log).With(logger.Email(email))
	log.Info("searching for client by email")

	query := url.Values{}
	query.Set("filter", strings.TrimSpace(email))
	query.Set("per_page", strconv.Itoa(clientPageSize))

	clients, err := list[billingdomain.Client](ctx, c, endpointClients, query)
	if err != nil {
		log.Error("error searching for client", zap.Error(err))
		return billingdomain.ClientMatch{}, err
	}

	match := billingdomain.ClassifyClients(email, clients)
	switch match.Outcome {
	case billingdomain.MatchUnique:
		log.Info("found exact client match")
	case billingdomain.MatchAmbiguous:
		log.Warn("ambiguous client match", zap.String("reason", match.Reason), zap.Int("candidates", len(match.Candidates)))
	default:
		log.Info("no client found for email")
	}
	return match, nil
}

func (c *Client) FetchInvoices(ctx context.Context, clientID string, limit, monthsBack int) ([]billingdomain.Invoice, error) {
	logger.WithContext(ctx, c.log).Info("fetching invoices", zap.String("client_id", clientID), zap.Int("limit", limit))

	window := pagination.Window[billingdomain.Invoice]{
		PageSize: pageSize,
		Limit:    limit,
		Cutoff:   pagination.MonthsBack(c.clock.Now(), monthsBack),
		DateOf:   func(inv billingdomain.Invoice) time.Time { return inv.Date.Time },
	}
	return pagination.Walk(ctx, window, func(ctx context.Context, page int) ([]billingdomain.Invoice, error) {
		return list[billingdomain.Invoice](ctx, c, endpointInvoices, pageQuery(clientID, page))
	})
}

// FetchPayments filters by client on the server and again locally, since not
// every platform version honours client_id on the payments listing.
func (c *Client) FetchPayments(ctx context.Context, clientID string, limit, monthsBack int) ([]billingdomain.Payment, error) {
	logger.WithContext(ctx, c.log).Info("fetching payments", zap.String("client_id", clientID), zap.Int("limit", limit))

	window := pagination.Window[billingdomain.Payment]{
		PageSize: pageSize,
		Limit:    limit,
		Cutoff:   pagination.MonthsBack(c.clock.Now(), monthsBack),
		DateOf:   func(p billingdomain.Payment) time.Time { return p.Date.Time },
		Keep: func(p billingdomain.Payment) bool {
			return p.ClientID.String() == clientID
		},
	}
	return pagination.Walk(ctx, window, func(ctx context.Context, page int) ([]billingdomain.Payment, error) {
		return list[billingdomain.Payment](ctx, c, endpointPayments, pageQuery(clientID, page))
	})
}

func (c *Client) FetchProducts(ctx context.Context) ([]billingdomain.Product, error) {
	logger.WithContext(ctx, c.log).Info("fetching products")

	query := url.Values{}
	query.Set("per_page", strconv.Itoa(productPageSize))
	return list[billingdomain.Product](ctx, c, endpointProducts, query)
}

func pageQuery(clientID string, page int) url.Values {
	query := url.Values{}
	if clientID != "" {
		query.Set("client_id", clientID)
	}
	query.Set("per_page", strconv.Itoa(pageSize))
	query.Set("page", strconv.Itoa(page))
	query.Set("sort", "date|desc")
	return query
}

func list[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	var out envelope[T]
	if err := c.get(ctx, endpoint, query, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []T{}, nil
	}
	return out.Data, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &billingdomain.UpstreamError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("X-API-Token", c.token)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	ctx, span := tracing.StartClientSpan(ctx, "invoiceninja "+endpoint, req)
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamRequest(ctx, endpoint, 0, time.Since(start))
		tracing.EndClientSpan(span, 0, err)
		return &billingdomain.UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstreamRequest(ctx, endpoint, resp.StatusCode, time.Since(start))

	if err := classifyStatus(endpoint, resp); err != nil {
		if errors.Is(err, billingdomain.ErrAuthentication) {
			logger.WithContext(ctx, c.log).Error("invoice ninja authentication failed, check token and permissions",
				zap.String("endpoint", endpoint))
		}
		tracing.EndClientSpan(span, resp.StatusCode, err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		err = &billingdomain.UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		tracing.EndClientSpan(span, resp.StatusCode, err)
		return err
	}
	tracing.EndClientSpan(span, resp.StatusCode, nil)
	return nil
}

func classifyStatus(endpoint string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", endpoint, billingdomain.ErrAuthentication)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &billingdomain.UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: errors.New(message)}
	default:
		return nil
	}
}
