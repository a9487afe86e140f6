// Package httpclient constructs the hardened HTTP client used for all
// calls to the datasets API.
package httpclient

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teranos/harvest/errors"
)

// DefaultTimeout bounds a single request/response exchange. The remote
// trigger and snapshot endpoints can be slow for large payloads, so this
// is deliberately generous; callers may override per client.
const DefaultTimeout = 30 * time.Second

// New returns an *http.Client with a per-call timeout and a tuned
// transport. The timeout applies to the whole exchange including body
// read; exceeding it surfaces as a net.Error with Timeout() == true.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// ValidateBaseURL checks that a configured API base URL is usable:
// http or https scheme, a hostname, and no embedded credentials.
func ValidateBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base URL")
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, errors.Newf("scheme %q not allowed (allowed: http, https)", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, errors.New("base URL missing hostname")
	}
	if u.User != nil {
		return nil, errors.New("base URL must not contain credentials")
	}

	return u, nil
}
