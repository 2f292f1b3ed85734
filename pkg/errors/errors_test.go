package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	plain := New(ErrorTypeAuth, "login rejected")
	if got := plain.Error(); got != "auth error: login rejected" {
		t.Errorf("Unexpected message: %q", got)
	}

	cause := stderrors.New("connection reset")
	wrapped := Wrap(ErrorTypeNetwork, "fetch failed", cause)
	if got := wrapped.Error(); got != "network error: fetch failed: connection reset" {
		t.Errorf("Unexpected message: %q", got)
	}
	if !stderrors.Is(wrapped, cause) {
		t.Error("Expected wrapped cause to be reachable via errors.Is")
	}
}

func TestTypeOf(t *testing.T) {
	if TypeOf(New(ErrorTypeCheckpoint, "x")) != ErrorTypeCheckpoint {
		t.Error("Expected checkpoint type")
	}
	if TypeOf(stderrors.New("plain")) != ErrorTypeUnknown {
		t.Error("Expected unknown type for plain error")
	}

	// Type survives further wrapping with %w
	outer := fmt.Errorf("while exporting: %w", New(ErrorTypeSource, "page fetch"))
	if TypeOf(outer) != ErrorTypeSource {
		t.Error("Expected type through %w wrapping")
	}
	if !IsType(outer, ErrorTypeSource) {
		t.Error("Expected IsType through %w wrapping")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeSource}
	for _, et := range retryable {
		if !IsRetryable(et) {
			t.Errorf("Expected %s retryable", et)
		}
	}

	terminal := []ErrorType{ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeProcessing, ErrorTypeCheckpoint, ErrorTypeUnknown}
	for _, et := range terminal {
		if IsRetryable(et) {
			t.Errorf("Expected %s not retryable", et)
		}
	}
}
