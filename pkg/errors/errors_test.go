package errors

import (
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrorTypeNotFound, "blog %s not found", "photoblog")
	want := "not_found error: blog photoblog not found"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}

	coded := WithCode(ErrorTypeServerError, 503, "server error")
	want = "server_error error (code 503): server error"
	if coded.Error() != want {
		t.Errorf("Expected %q, got %q", want, coded.Error())
	}
}

func TestTypePredicates(t *testing.T) {
	if !IsDuplicate(New(ErrorTypeDuplicate, "dup")) {
		t.Error("IsDuplicate should match a duplicate error")
	}
	if IsDuplicate(New(ErrorTypeNotFound, "missing")) {
		t.Error("IsDuplicate should not match other types")
	}
	if IsNotFound(fmt.Errorf("plain error")) {
		t.Error("Predicates should not match unclassified errors")
	}
}

func TestPredicatesUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("sync failed: %w", New(ErrorTypeConnectivity, "timeout"))
	if !IsConnectivity(wrapped) {
		t.Error("Predicates should see through wrapping")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ErrorTypeConnectivity) || !IsRetryable(ErrorTypeServerError) {
		t.Error("Transient types should be retryable")
	}
	if IsRetryable(ErrorTypeNotFound) || IsRetryable(ErrorTypeDuplicate) {
		t.Error("Permanent types should not be retryable")
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	for _, code := range []int{0, 429, 500, 503} {
		if !IsRetryableStatusCode(code) {
			t.Errorf("Status %d should be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 401, 404} {
		if IsRetryableStatusCode(code) {
			t.Errorf("Status %d should not be retryable", code)
		}
	}
}
