// Package fetch downloads remote images for the vectorize endpoint.
//
// Downloads are bounded: a per-attempt timeout, a cap on the body size that
// is enforced while reading, and a small number of retries for transient
// failures (transport errors and 5xx responses). Every failure maps onto a
// structured error code:
//
//   - INVALID_INPUT: the URL is not http(s)
//   - PAYLOAD_TOO_LARGE: the body exceeds the cap
//   - TIMEOUT: the server did not answer in time
//   - FETCH_FAILED: everything else
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	verrors "github.com/sherafyk/vectorize-svc/pkg/errors"
	"github.com/sherafyk/vectorize-svc/pkg/httputil"
	"github.com/sherafyk/vectorize-svc/pkg/observability"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 10 << 20
)

// Client downloads images over HTTP. It is safe for concurrent use.
type Client struct {
	http     *http.Client
	maxBytes int64
	retry    httputil.Policy
	agent    string
}

// NewClient creates a client. Zero arguments select the defaults.
func NewClient(timeout time.Duration, maxBytes int64) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		retry:    httputil.DefaultPolicy,
		agent:    "vectorize-svc",
	}
}

// MaxBytes returns the body size cap.
func (c *Client) MaxBytes() int64 { return c.maxBytes }

// Fetch downloads rawURL and returns the body.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := verrors.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, verrors.New(verrors.ErrCodeInvalidInput, "invalid image_url")
	}

	var body []byte
	err = httputil.Retry(ctx, c.retry, func() error {
		var err error
		body, err = c.get(ctx, u)
		return err
	})
	if err != nil {
		return nil, contextError(err)
	}
	return body, nil
}

// contextError gives a code to the bare context error Retry returns when
// ctx ends between attempts.
func contextError(err error) error {
	switch {
	case verrors.GetCode(err) != "":
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return verrors.Wrap(verrors.ErrCodeTimeout, err, "timed out fetching image")
	case errors.Is(err, context.Canceled):
		return verrors.Wrap(verrors.ErrCodeFetch, err, "image fetch canceled")
	}
	return err
}

func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeInvalidInput, err, "invalid image_url")
	}
	req.Header.Set("User-Agent", c.agent)
	req.Header.Set("Accept", "image/*")

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		if isTimeout(err) {
			return nil, verrors.Wrap(verrors.ErrCodeTimeout, err, "timed out fetching image")
		}
		if ctx.Err() != nil {
			return nil, verrors.Wrap(verrors.ErrCodeFetch, ctx.Err(), "image fetch canceled")
		}
		return nil, httputil.Retryable(verrors.Wrap(verrors.ErrCodeFetch, err, "failed to fetch image"))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	if resp.ContentLength > c.maxBytes {
		return nil, tooLarge(c.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return nil, verrors.Wrap(verrors.ErrCodeTimeout, err, "timed out reading image")
		}
		return nil, httputil.Retryable(verrors.Wrap(verrors.ErrCodeFetch, err, "failed to read image"))
	}
	if int64(len(data)) > c.maxBytes {
		return nil, tooLarge(c.maxBytes)
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500:
		return httputil.Retryable(verrors.New(verrors.ErrCodeFetch, "failed to fetch image: status %d", code))
	default:
		return verrors.New(verrors.ErrCodeFetch, "failed to fetch image: status %d", code)
	}
}

func tooLarge(limit int64) error {
	return verrors.New(verrors.ErrCodeTooLarge, "File too large (limit %s)", humanBytes(limit))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MiB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KiB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
