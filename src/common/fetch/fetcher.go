package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Policy bounds a fetch. MaxRetries is the total number of attempts.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxJitter  time.Duration
	Timeout    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   5 * time.Second,
		MaxJitter:  time.Second,
		Timeout:    20 * time.Second,
	}
}

type Result struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

func (r *Result) Text() string {
	return string(r.Body)
}

type Fetcher struct {
	client   *http.Client
	agents   *UserAgents
	policy   Policy
	timer    backoff.Timer
	jitterFn func(int64) int64
	logger   *zap.SugaredLogger
}

type Option func(*Fetcher)

func WithClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

func WithUserAgents(agents *UserAgents) Option {
	return func(f *Fetcher) { f.agents = agents }
}

// WithTimer replaces the timer used to wait between attempts.
func WithTimer(timer backoff.Timer) Option {
	return func(f *Fetcher) { f.timer = timer }
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

func New(policy Policy, opts ...Option) *Fetcher {
	f := &Fetcher{
		policy: policy,
		agents: NewUserAgents(),
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = NewHTTPClient()
	}
	return f
}

// NewHTTPClient returns a client that leaves Content-Encoding to decodeBody
// and follows at most 5 redirects.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableCompression = true

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			return nil
		},
	}
}

func (f *Fetcher) Policy() Policy {
	return f.policy
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string) (*Result, error) {
	return f.FetchWithPolicy(ctx, rawURL, headers, f.policy)
}

func (f *Fetcher) FetchWithPolicy(ctx context.Context, rawURL string, headers map[string]string, policy Policy) (*Result, error) {
	target, err := url.Parse(rawURL)
	if err != nil || target.Host == "" || (target.Scheme != "http" && target.Scheme != "https") {
		if err == nil {
			err = fmt.Errorf("unsupported url %q", rawURL)
		}
		return nil, &FetchError{URL: rawURL, Cause: err}
	}

	attempts := policy.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	b := &Backoff{
		Base:     policy.BaseDelay,
		Max:      policy.MaxDelay,
		Jitter:   policy.MaxJitter,
		jitterFn: f.jitterFn,
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	made := 0
	var lastErr error

	operation := func() (*Result, error) {
		made++
		res, err := f.attempt(ctx, target, headers, policy.Timeout)
		if err != nil {
			lastErr = err
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.Retryable() {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		res.Attempts = made
		return res, nil
	}

	notify := func(err error, wait time.Duration) {
		f.logger.Warnw("fetch attempt failed", "url", rawURL, "attempt", made, "of", attempts, "retryIn", wait, "error", err)
	}

	start := time.Now()
	res, err := backoff.RetryNotifyWithTimerAndData(operation, bo, notify, f.timer)
	if err != nil {
		cause := lastErr
		if cause == nil {
			cause = err
		}
		fetchErr := &FetchError{URL: rawURL, Attempts: made, Cause: cause}
		var statusErr *StatusError
		if errors.As(cause, &statusErr) {
			fetchErr.StatusCode = statusErr.StatusCode
		}
		f.logger.Errorw("fetch failed", "url", rawURL, "attempts", made, "elapsed", time.Since(start), "error", cause)
		return nil, fetchErr
	}

	f.logger.Debugw("fetch ok", "url", rawURL, "status", res.StatusCode, "attempts", made, "bytes", len(res.Body), "elapsed", time.Since(start))
	return res, nil
}

func (f *Fetcher) attempt(ctx context.Context, target *url.URL, headers map[string]string, timeout time.Duration) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	f.setHeaders(req, target, headers)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) > maxBodyBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", maxBodyBytes)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := decodeBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, err
	}
	body = toUTF8(body, resp.Header.Get("Content-Type"))

	header := resp.Header.Clone()
	header.Del("Content-Encoding")
	header.Del("Content-Length")

	return &Result{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       body,
	}, nil
}

func (f *Fetcher) setHeaders(req *http.Request, target *url.URL, overrides map[string]string) {
	h := req.Header
	h.Set("User-Agent", f.agents.Next())
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Connection", "keep-alive")
	h.Set("Cache-Control", "no-cache")
	h.Set("Referer", target.Scheme+"://"+target.Host+"/")

	for k, v := range overrides {
		h.Set(k, v)
	}
}
