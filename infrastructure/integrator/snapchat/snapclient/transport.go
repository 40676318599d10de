package snapclient

import (
	"context"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/snapchat-ads-extractor/internal/config"
	"github.com/vfg2006/snapchat-ads-extractor/pkg/metrics"
	"golang.org/x/time/rate"
)

// RetryStatuses são os status considerados transitórios
var RetryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusGatewayTimeout:      true,
}

type RetryPolicy struct {
	// AttemptTimeout limita cada tentativa isoladamente; as esperas entre tentativas ficam de fora
	AttemptTimeout  time.Duration
	MaxRetries      int
	BackoffFactor   time.Duration
	MaxBackoff      time.Duration
	Multiplier      float64
	RandomizeFactor float64
}

func NewRetryPolicy(cfg config.HTTP) RetryPolicy {
	return RetryPolicy{
		AttemptTimeout:  cfg.Timeout,
		MaxRetries:      cfg.MaxRetries,
		BackoffFactor:   cfg.BackoffFactor,
		MaxBackoff:      cfg.MaxBackoff,
		Multiplier:      2,
		RandomizeFactor: 0.1,
	}
}

// Delay calcula a espera antes da tentativa de número retry (a partir de 1)
func (p RetryPolicy) Delay(retry int) time.Duration {
	delay := float64(p.BackoffFactor) * math.Pow(p.Multiplier, float64(retry-1))

	if p.MaxBackoff > 0 && delay > float64(p.MaxBackoff) {
		delay = float64(p.MaxBackoff)
	}

	if p.RandomizeFactor > 0 {
		delta := delay * p.RandomizeFactor
		delay = delay - delta + rand.Float64()*2*delta
	}

	return time.Duration(delay)
}

// RetryTransport repete requisições que falharam com status transitório ou erro de rede.
// Esgotadas as tentativas, a última resposta é devolvida como está.
type RetryTransport struct {
	Base    http.RoundTripper
	Policy  RetryPolicy
	Limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewRetryTransport(base http.RoundTripper, policy RetryPolicy, requestsPerSecond float64) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &RetryTransport{
		Base:    base,
		Policy:  policy,
		Limiter: limiter,
		sleep:   sleepContext,
	}
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	for retry := 0; ; retry++ {
		if t.Limiter != nil {
			if err := t.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		attemptCtx, cancel := t.attemptContext(ctx)

		attempt := req.WithContext(attemptCtx)
		if retry > 0 && req.Body != nil && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				cancel()
				return nil, err
			}
			attempt.Body = body
		}

		resp, err := t.Base.RoundTrip(attempt)
		if err != nil {
			cancel()
		} else {
			// o prazo da tentativa vale até o corpo ser fechado
			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		}

		if !t.shouldRetry(ctx, resp, err) || retry >= t.Policy.MaxRetries {
			return resp, err
		}

		status := 0
		delay := t.Policy.Delay(retry + 1)
		if resp != nil {
			status = resp.StatusCode
			if retryAfter := parseRetryAfter(resp); retryAfter > 0 {
				delay = retryAfter
				if t.Policy.MaxBackoff > 0 && delay > t.Policy.MaxBackoff {
					delay = t.Policy.MaxBackoff
				}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		metrics.ObserveRetry(status)
		logrus.WithFields(logrus.Fields{
			"url":         req.URL.Path,
			"status_code": status,
			"retry":       retry + 1,
			"delay":       delay.String(),
			"error":       errString(err),
		}).Warn("snapchat: transient failure, retrying request")

		if err := t.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (t *RetryTransport) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.Policy.AttemptTimeout > 0 {
		return context.WithTimeout(ctx, t.Policy.AttemptTimeout)
	}
	return context.WithCancel(ctx)
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func (t *RetryTransport) shouldRetry(ctx context.Context, resp *http.Response, err error) bool {
	if err != nil {
		return ctx.Err() == nil
	}
	return RetryStatuses[resp.StatusCode]
}

func parseRetryAfter(resp *http.Response) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		return time.Until(at)
	}

	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
