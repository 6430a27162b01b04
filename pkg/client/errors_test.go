package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{name: "client error - no retry", errorClass: ErrorClassClient, expected: false},
		{name: "server error - retry", errorClass: ErrorClassServer, expected: true},
		{name: "rate limit - retry", errorClass: ErrorClassRateLimit, expected: true},
		{name: "network error - retry", errorClass: ErrorClassNetwork, expected: true},
		{name: "unknown class - no retry", errorClass: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.errorClass); got != tt.expected {
				t.Errorf("shouldRetry(%s) = %v, want %v", tt.errorClass, got, tt.expected)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{http.StatusBadRequest, ErrorClassClient},
		{http.StatusUnauthorized, ErrorClassClient},
		{http.StatusNotFound, ErrorClassClient},
		{http.StatusTooManyRequests, ErrorClassRateLimit},
		{http.StatusInternalServerError, ErrorClassServer},
		{http.StatusBadGateway, ErrorClassServer},
		{http.StatusServiceUnavailable, ErrorClassServer},
		{http.StatusMovedPermanently, ErrorClassClient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.want {
				t.Errorf("classifyStatus(%d) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestClassOf(t *testing.T) {
	apiErr := &APIError{ErrorClass: ErrorClassServer, StatusCode: 503}

	if got := classOf(apiErr); got != ErrorClassServer {
		t.Errorf("classOf(APIError) = %s", got)
	}
	if got := classOf(fmt.Errorf("wrapped: %w", apiErr)); got != ErrorClassServer {
		t.Errorf("classOf(wrapped) = %s", got)
	}
	if got := classOf(errors.New("plain")); got != "" {
		t.Errorf("classOf(plain) = %q, want empty", got)
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name: "with wordpress code",
			err: &APIError{
				Endpoint:   "/orders",
				StatusCode: 401,
				ErrorClass: ErrorClassClient,
				Code:       "woocommerce_rest_cannot_view",
				Message:    "Sorry, you cannot list resources.",
			},
			expected: "woocommerce client error (status 401) on /orders: woocommerce_rest_cannot_view: Sorry, you cannot list resources.",
		},
		{
			name: "without code",
			err: &APIError{
				Endpoint:   "/products",
				StatusCode: 502,
				ErrorClass: ErrorClassServer,
				Message:    "502 Bad Gateway",
			},
			expected: "woocommerce server error (status 502) on /products: 502 Bad Gateway",
		},
		{
			name: "network error",
			err: &APIError{
				Endpoint:   "/coupons",
				ErrorClass: ErrorClassNetwork,
				Err:        errors.New("connection refused"),
			},
			expected: "woocommerce network error on /coupons: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	underlying := errors.New("connection reset")
	err := &APIError{ErrorClass: ErrorClassNetwork, Err: underlying}

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find the underlying error")
	}

	var apiErr *APIError
	if !errors.As(fmt.Errorf("outer: %w", err), &apiErr) {
		t.Error("errors.As should find the APIError")
	}

	if (&APIError{}).Unwrap() != nil {
		t.Error("Unwrap() should return nil without an underlying error")
	}
}

func TestIsStatus(t *testing.T) {
	err := fmt.Errorf("fetch: %w", &APIError{StatusCode: 404})
	if !IsStatus(err, 404) {
		t.Error("IsStatus(404) = false")
	}
	if IsStatus(err, 500) {
		t.Error("IsStatus(500) = true")
	}
	if IsStatus(errors.New("x"), 404) {
		t.Error("IsStatus on plain error = true")
	}
}
