package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies a provider failure. Only transient kinds are retried.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindTimeout
	KindRateLimit
	KindServer
	KindClient
	KindParse
	KindNoData
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindRateLimit:
		return "rate_limit"
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	case KindParse:
		return "parse"
	case KindNoData:
		return "no_data"
	default:
		return "unknown"
	}
}

// Transient reports whether a retry could plausibly succeed.
func (k Kind) Transient() bool {
	switch k {
	case KindNetwork, KindTimeout, KindServer, KindRateLimit:
		return true
	default:
		return false
	}
}

// Error is the typed failure every outbound provider call is wrapped in.
type Error struct {
	Provider string
	Kind     Kind
	// RetryAfter carries the provider's advertised wait on rate limits.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsNoData reports whether the provider responded well-formed but empty.
// This is the only failure the tracker may treat as token death.
func IsNoData(err error) bool {
	return KindOf(err) == KindNoData
}

func wrapErr(provider string, kind Kind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// classifyTransport maps a transport-level error from http.Client.Do.
func classifyTransport(provider string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return wrapErr(provider, KindTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return wrapErr(provider, KindTimeout, err)
	}
	return wrapErr(provider, KindNetwork, err)
}

// classifyStatus maps a non-2xx HTTP response.
func classifyStatus(provider string, resp *http.Response) *Error {
	status := resp.StatusCode
	switch {
	case status == http.StatusTooManyRequests:
		return &Error{
			Provider:   provider,
			Kind:       KindRateLimit,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("http %d", status),
		}
	case status >= 500:
		return wrapErr(provider, KindServer, fmt.Errorf("http %d", status))
	default:
		return wrapErr(provider, KindClient, fmt.Errorf("http %d", status))
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
