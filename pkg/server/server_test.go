// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestNew(t *testing.T) {
	s := New(WithHandler(map[string]http.HandlerFunc{
		"GET /v1/devices": okHandler,
	}))

	if s.config == nil {
		t.Fatal("expected config to be initialized")
	}
	if s.httpServer == nil {
		t.Error("expected httpServer to be initialized")
	}
	if s.rateLimiter == nil {
		t.Error("expected rateLimiter to be initialized")
	}
	if _, ok := s.config.Handlers["GET /v1/devices"]; !ok {
		t.Error("expected handler to be registered")
	}
}

func TestOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Port = 9090
	cfg.RateLimit = 500

	s := New(WithConfig(cfg), WithName("telemd"), WithVersion("1.2.3"), WithAuth([]byte("k"), "iss"))

	if s.config.Name != "telemd" {
		t.Errorf("expected name telemd, got %s", s.config.Name)
	}
	if s.config.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %s", s.config.Version)
	}
	if s.config.Port != 9090 {
		t.Errorf("expected port 9090, got %d", s.config.Port)
	}
	if !s.config.AuthEnabled() || s.config.AuthIssuer != "iss" {
		t.Error("expected auth to be enabled with issuer")
	}
}

func TestDefaultServerName(t *testing.T) {
	s := New()
	if s.config.Name != "server" {
		t.Errorf("expected default name 'server', got %s", s.config.Name)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := New()

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", w.Header().Get("Content-Type"))
	}
}

func TestReadyEndpoint(t *testing.T) {
	s := New()

	tests := []struct {
		name           string
		ready          bool
		expectedStatus int
	}{
		{name: "ready state", ready: true, expectedStatus: http.StatusOK},
		{name: "not ready state", ready: false, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.SetReady(tt.ready)

			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(WithHandler(map[string]http.HandlerFunc{"GET /v1/devices": okHandler}))

	// one API call so the request counter has a sample
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/devices", nil))

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "telemetry_http_requests_total") {
		t.Error("expected request counter in exposition")
	}
}

func TestRoutePatterns(t *testing.T) {
	var gotID string
	s := New(WithHandler(map[string]http.HandlerFunc{
		"GET /v1/devices/{id}/statistics": func(w http.ResponseWriter, r *http.Request) {
			gotID = r.PathValue("id")
			w.WriteHeader(http.StatusOK)
		},
	}))

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/devices/7/statistics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if gotID != "7" {
		t.Errorf("expected path value 7, got %q", gotID)
	}

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/devices/7/statistics", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405 for wrong method, got %d", w.Code)
	}
}

func TestDefaultRootHandler(t *testing.T) {
	s := New(WithName("telemd"), WithHandler(map[string]http.HandlerFunc{
		"GET /v1/devices": okHandler,
	}))
	s.SetReady(true)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Name   string   `json:"name"`
		Ready  bool     `json:"ready"`
		Routes []string `json:"routes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode index: %v", err)
	}
	if resp.Name != "telemd" || !resp.Ready {
		t.Errorf("unexpected index %+v", resp)
	}
	found := false
	for _, r := range resp.Routes {
		if r == "GET /v1/devices" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected route list to contain GET /v1/devices, got %v", resp.Routes)
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	s := New()

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v2/nothing", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestRateLimiting(t *testing.T) {
	cfg := NewConfig()
	cfg.RateLimit = 1
	cfg.RateLimitBurst = 1

	s := New(WithConfig(cfg), WithHandler(map[string]http.HandlerFunc{"GET /test": okHandler}))
	handler := s.withMiddleware(s.config.Handlers["GET /test"])

	w1 := httptest.NewRecorder()
	handler(w1, httptest.NewRequest(http.MethodGet, "/test", nil))
	if w1.Code != http.StatusOK {
		t.Errorf("expected first request to succeed with status 200, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	handler(w2, httptest.NewRequest(http.MethodGet, "/test", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Errorf("expected rate limit error with status 429, got %d", w2.Code)
	}
	if w2.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header to be set")
	}
}

func TestGracefulShutdown(t *testing.T) {
	cfg := NewConfig()
	cfg.Port = 18080
	cfg.ShutdownTimeout = 100 * time.Millisecond

	s := New(WithConfig(cfg))

	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("expected clean shutdown, got error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("shutdown timed out")
	}
}
