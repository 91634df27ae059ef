// Package viacep resolves Brazilian postal codes (CEP) through the ViaCEP web service.
package viacep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/metrics"
	"github.com/nikolayk812/partyshop/internal/port"
	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://viacep.com.br"
	defaultTimeout = 10 * time.Second
)

const (
	msgInvalid     = "CEP deve conter 8 dígitos"
	msgNotFound    = "CEP não encontrado"
	msgUnavailable = "Ocorreu um erro ao buscar o CEP. Tente novamente mais tarde."
)

var _ port.AddressLookup = (*Client)(nil)

type Config struct {
	BaseURL string

	// Timeout bounds one shared request, independent of the callers waiting on it.
	Timeout time.Duration

	// RatePerSecond and Burst limit outbound requests; zero RatePerSecond disables the limit.
	RatePerSecond float64
	Burst         int

	// BreakerFailures consecutive failures open the breaker for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[domain.Address]
	group   singleflight.Group
}

func New(cfg Config, client *http.Client, logger *slog.Logger, m *metrics.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "viacep"))

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := max(cfg.Burst, 1)
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[domain.Address](gobreaker.Settings{
		Name:    "viacep",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// unknown codes and abandoned requests say nothing about the service's health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrPostalCodeNotFound) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		http:    client,
		logger:  logger,
		metrics: m,
		limiter: limiter,
		breaker: breaker,
	}
}

// Normalize strips everything but digits and reports whether exactly 8 remain.
func Normalize(postalCode string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, postalCode)

	return digits, len(digits) == 8
}

// Lookup resolves postalCode to street, neighborhood, city and state. Number and Complement stay empty.
func (c *Client) Lookup(ctx context.Context, postalCode string) (domain.Address, error) {
	code, ok := Normalize(postalCode)
	if !ok {
		c.metrics.AddressLookedUp(metrics.ResultInvalid)
		return domain.Address{}, &domain.UserError{
			Kind:    domain.KindValidation,
			Message: msgInvalid,
			Err:     domain.ErrInvalidPostalCode,
		}
	}

	// the shared request outlives any single caller; each caller only stops waiting on its own ctx
	shared := c.group.DoChan(code, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		return c.breaker.Execute(func() (domain.Address, error) {
			return c.fetch(fetchCtx, code)
		})
	})

	var res singleflight.Result
	select {
	case res = <-shared:
	case <-ctx.Done():
		c.metrics.AddressLookedUp(metrics.ResultCanceled)
		return domain.Address{}, domain.NewUnavailableError(msgUnavailable, ctx.Err())
	}

	err := res.Err
	switch {
	case err == nil:
		c.metrics.AddressLookedUp(metrics.ResultOK)
		return res.Val.(domain.Address), nil
	case errors.Is(err, domain.ErrPostalCodeNotFound):
		c.metrics.AddressLookedUp(metrics.ResultNotFound)
		return domain.Address{}, domain.NewRejectedError(msgNotFound, err)
	default:
		c.metrics.AddressLookedUp(metrics.ResultError)
		c.logger.Error("postal code lookup failed", slog.String("cep", code), slog.Any("error", err))
		return domain.Address{}, domain.NewUnavailableError(msgUnavailable, err)
	}
}

func (c *Client) fetch(ctx context.Context, code string) (domain.Address, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Address{}, fmt.Errorf("limiter.Wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ws/"+code+"/json/", nil)
	if err != nil {
		return domain.Address{}, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Address{}, fmt.Errorf("http.Do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return domain.Address{}, fmt.Errorf("io.ReadAll: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return domain.Address{}, domain.ErrPostalCodeNotFound
	case resp.StatusCode != http.StatusOK:
		return domain.Address{}, fmt.Errorf("viacep: status %d", resp.StatusCode)
	case !gjson.ValidBytes(body):
		return domain.Address{}, errors.New("viacep: response is not json")
	}

	res := gjson.ParseBytes(body)
	// erro comes back as a boolean or as the string "true" depending on the API version
	if res.Get("erro").Bool() {
		return domain.Address{}, domain.ErrPostalCodeNotFound
	}

	return domain.Address{
		PostalCode:   code,
		Street:       res.Get("logradouro").String(),
		Neighborhood: res.Get("bairro").String(),
		City:         res.Get("localidade").String(),
		Region:       res.Get("uf").String(),
	}, nil
}
