// Package testutil provides testing utilities for the portfolio cache
// service.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior of one mock pricing endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockDexScreener is a configurable in-process stand-in for the DexScreener
// API. It records request counts so tests can assert how often the cache
// let a request through.
type MockDexScreener struct {
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	requests  map[string]int
}

// NewMockDexScreener starts a mock pricing API server. Close it with Close.
func NewMockDexScreener() *MockDexScreener {
	mock := &MockDexScreener{
		responses: make(map[string]MockResponse),
		requests:  make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests[r.URL.Path]++
		resp, ok := mock.responses[r.URL.Path]
		mock.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		fmt.Fprint(w, resp.Body)
	}))

	return mock
}

// URL returns the mock server's base URL.
func (m *MockDexScreener) URL() string {
	return m.server.URL
}

// Close shuts the mock server down.
func (m *MockDexScreener) Close() {
	m.server.Close()
}

// SetTokenResponse configures the response for one mint lookup.
func (m *MockDexScreener) SetTokenResponse(mint string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses["/tokens/v1/solana/"+mint] = resp
}

// SetTokenPrice configures a minimal successful pair response for one mint.
func (m *MockDexScreener) SetTokenPrice(mint, symbol string, priceUSD float64) {
	body := fmt.Sprintf(
		`[{"priceUsd":"%g","fdv":1000000,"marketCap":900000,"baseToken":{"address":"%s","name":"%s","symbol":"%s"}}]`,
		priceUSD, mint, symbol, symbol,
	)
	m.SetTokenResponse(mint, MockResponse{StatusCode: http.StatusOK, Body: body})
}

// RequestCount returns how many times the given mint was requested.
func (m *MockDexScreener) RequestCount(mint string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests["/tokens/v1/solana/"+mint]
}
