package provider

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestKindTransient(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{KindNetwork, true},
		{KindTimeout, true},
		{KindServer, true},
		{KindRateLimit, true},
		{KindClient, false},
		{KindParse, false},
		{KindNoData, false},
		{KindUnknown, false},
	}
	for _, tc := range cases {
		if got := tc.kind.Transient(); got != tc.want {
			t.Fatalf("%s.Transient() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestClassifyStatus(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	resp.Header.Set("Retry-After", "7")
	pe := classifyStatus("test", resp)
	if pe.Kind != KindRateLimit {
		t.Fatalf("429 kind = %s, want rate_limit", pe.Kind)
	}
	if pe.RetryAfter != 7*time.Second {
		t.Fatalf("retry-after = %v, want 7s", pe.RetryAfter)
	}

	resp = &http.Response{StatusCode: http.StatusBadGateway, Header: http.Header{}}
	if pe := classifyStatus("test", resp); pe.Kind != KindServer {
		t.Fatalf("502 kind = %s, want server", pe.Kind)
	}

	resp = &http.Response{StatusCode: http.StatusForbidden, Header: http.Header{}}
	if pe := classifyStatus("test", resp); pe.Kind != KindClient {
		t.Fatalf("403 kind = %s, want client", pe.Kind)
	}
}

func TestKindOfUnwrapsChains(t *testing.T) {
	inner := wrapErr("test", KindNoData, fmt.Errorf("empty"))
	wrapped := fmt.Errorf("fetch: %w", inner)
	if KindOf(wrapped) != KindNoData {
		t.Fatalf("kind of wrapped error = %s, want no_data", KindOf(wrapped))
	}
	if !IsNoData(wrapped) {
		t.Fatal("IsNoData(wrapped) = false, want true")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("plain error must classify as unknown")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter(""); d != 0 {
		t.Fatalf("empty header = %v, want 0", d)
	}
	if d := parseRetryAfter("12"); d != 12*time.Second {
		t.Fatalf("seconds header = %v, want 12s", d)
	}
	if d := parseRetryAfter("garbage"); d != 0 {
		t.Fatalf("garbage header = %v, want 0", d)
	}
}
