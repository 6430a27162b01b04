// Package testutil provides a mock WooCommerce store for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// APIPrefix is the REST root every WooCommerce route lives under.
const APIPrefix = "/wp-json/wc/v3"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MockResponse defines a canned response for one route.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is what the mock saw for one request.
type RecordedRequest struct {
	Path   string
	Query  url.Values
	Header http.Header
}

// MockWooCommerce is a configurable WooCommerce REST server.
type MockWooCommerce struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	consumerKey    string
	consumerSecret string

	requests []RecordedRequest
}

// NewMockWooCommerce starts a mock store. Routes are registered relative to
// APIPrefix, e.g. "/products".
func NewMockWooCommerce() *MockWooCommerce {
	mock := &MockWooCommerce{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		})
		key, secret := mock.consumerKey, mock.consumerSecret
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if key != "" && !authorized(r, key, secret) {
			WriteError(w, http.StatusUnauthorized, "woocommerce_rest_cannot_view", "Sorry, you cannot list resources.")
			return
		}

		if exists {
			handler(w, r)
			return
		}
		WriteError(w, http.StatusNotFound, "rest_no_route", "No route was found matching the URL and request method.")
	}))

	return mock
}

func authorized(r *http.Request, key, secret string) bool {
	if user, pass, ok := r.BasicAuth(); ok {
		return user == key && pass == secret
	}
	q := r.URL.Query()
	return q.Get("consumer_key") == key && q.Get("consumer_secret") == secret
}

// URL returns the site URL to configure the tap with.
func (m *MockWooCommerce) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockWooCommerce) Close() {
	m.server.Close()
}

// RequireCredentials makes every route answer 401 unless the request
// carries key and secret, via basic auth or query string.
func (m *MockWooCommerce) RequireCredentials(key, secret string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumerKey = key
	m.consumerSecret = secret
}

// Reset clears recorded requests.
func (m *MockWooCommerce) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetHandler sets a custom handler for a route.
func (m *MockWooCommerce) SetHandler(route string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[APIPrefix+route] = handler
}

// SetResponse configures a fixed response for a route.
func (m *MockWooCommerce) SetResponse(route string, resp MockResponse) {
	m.SetHandler(route, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetSequence serves responses in order, repeating the last one.
func (m *MockWooCommerce) SetSequence(route string, responses ...MockResponse) {
	var mu sync.Mutex
	next := 0
	m.SetHandler(route, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[min(next, len(responses)-1)]
		next++
		mu.Unlock()

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetCollection serves records as a paginated collection, honoring per_page
// and page and reporting X-WP-Total and X-WP-TotalPages like WordPress does.
func (m *MockWooCommerce) SetCollection(route string, records []map[string]any) {
	m.SetHandler(route, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		perPage, err := strconv.Atoi(q.Get("per_page"))
		if err != nil || perPage <= 0 {
			perPage = 10
		}
		page := 1
		if raw := q.Get("page"); raw != "" {
			page, err = strconv.Atoi(raw)
			if err != nil || page < 1 {
				WriteError(w, http.StatusBadRequest, "rest_invalid_param", "Invalid parameter(s): page")
				return
			}
		}

		totalPages := (len(records) + perPage - 1) / perPage
		if page > totalPages && page > 1 {
			WriteError(w, http.StatusBadRequest, "rest_post_invalid_page_number",
				"The page number requested is larger than the number of pages available.")
			return
		}

		start := min((page-1)*perPage, len(records))
		end := min(start+perPage, len(records))

		w.Header().Set("X-WP-Total", strconv.Itoa(len(records)))
		w.Header().Set("X-WP-TotalPages", strconv.Itoa(totalPages))
		WriteJSON(w, http.StatusOK, records[start:end])
	})
}

// Requests returns the requests received so far.
func (m *MockWooCommerce) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestsFor returns the requests received for one route.
func (m *MockWooCommerce) RequestsFor(route string) []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []RecordedRequest
	for _, r := range m.requests {
		if r.Path == APIPrefix+route {
			out = append(out, r)
		}
	}
	return out
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockWooCommerce) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	w.Write(body)
}

// WriteError writes a WordPress REST error document.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, map[string]any{
		"code":    code,
		"message": message,
		"data":    map[string]any{"status": status},
	})
}

// Records builds n records with sequential ids and a date_modified one
// minute apart starting at base, for collection fixtures.
func Records(n int, base time.Time) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{
			"id":            i + 1,
			"name":          fmt.Sprintf("record %d", i+1),
			"date_modified": base.Add(time.Duration(i) * time.Minute).Format("2006-01-02T15:04:05"),
		}
	}
	return out
}
