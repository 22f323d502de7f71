package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "unauthorized", status: 401, body: "bad key", want: ErrProvider},
		{name: "forbidden", status: 403, body: "", want: ErrProvider},
		{name: "too many requests", status: 429, body: "", want: ErrRateLimited},
		{name: "quota in body", status: 400, body: `{"error":"Monthly quota exceeded"}`, want: ErrRateLimited},
		{name: "server error", status: 500, body: "boom", want: ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus("test", tt.status, tt.body)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var pf *ProviderFailure
			if !errors.As(err, &pf) || pf.StatusCode != tt.status {
				t.Errorf("expected ProviderFailure with status %d, got %#v", tt.status, err)
			}
		})
	}
}

func TestFromMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{msg: "Your account has run out of searches.", want: ErrRateLimited},
		{msg: "Gemini API quota exceeded", want: ErrRateLimited},
		{msg: "Invalid API key. Your API key should be here: https://serpapi.com/manage-api-key", want: ErrProvider},
		{msg: "connection reset by peer", want: ErrUpstream},
	}

	for _, tt := range tests {
		if err := FromMessage("test", tt.msg); !errors.Is(err, tt.want) {
			t.Errorf("FromMessage(%q) = %v, want %v", tt.msg, err, tt.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(fmt.Errorf("search: %w", ErrRateLimited)) {
		t.Error("rate limited errors should be retryable")
	}
	if !Retryable(fmt.Errorf("gemini: %w", ErrEmptyResult)) {
		t.Error("empty results should be retryable")
	}
	if Retryable(FromStatus("x", 403, "")) {
		t.Error("authorization failures must not be retried")
	}
	if Retryable(Config("GEMINI_API_KEY is not set")) {
		t.Error("config errors must not be retried")
	}
}

func TestMessageTruncatedOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("é", 299) + "日本語"
	err := FromStatus("test", 500, body)

	var pf *ProviderFailure
	if !errors.As(err, &pf) {
		t.Fatalf("expected ProviderFailure, got %#v", err)
	}
	if !utf8.ValidString(pf.Message) {
		t.Errorf("message is not valid UTF-8: %q", pf.Message)
	}
	if want := strings.Repeat("é", 299) + "日..."; pf.Message != want {
		t.Errorf("expected 300 runes plus ellipsis, got %q", pf.Message)
	}
}
