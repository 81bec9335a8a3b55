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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

func newTestServer() *Server {
	return &Server{
		config:      NewConfig(),
		rateLimiter: rate.NewLimiter(100, 200),
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	provided := uuid.New().String()

	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{name: "generates when absent", header: ""},
		{name: "keeps valid id", header: provided, wantSame: true},
		{name: "replaces invalid id", header: "not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()

			var captured string
			handler := s.requestIDMiddleware(func(w http.ResponseWriter, r *http.Request) {
				captured = RequestID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-Id", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if _, err := uuid.Parse(captured); err != nil {
				t.Fatalf("expected valid UUID, got %q", captured)
			}
			if tt.wantSame && captured != tt.header {
				t.Errorf("expected request ID %s, got %s", tt.header, captured)
			}
			if !tt.wantSame && captured == tt.header {
				t.Errorf("expected request ID to be generated, got %s", captured)
			}
			if rec.Header().Get("X-Request-Id") != captured {
				t.Errorf("expected X-Request-Id header %s, got %s", captured, rec.Header().Get("X-Request-Id"))
			}
		})
	}
}

func TestVersionMiddleware(t *testing.T) {
	s := newTestServer()

	var captured string
	handler := s.versionMiddleware(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = r.Context().Value(contextKeyAPIVersion).(string)
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rec.Header().Get("X-API-Version") != DefaultAPIVersion {
		t.Errorf("expected API version header %s, got %s", DefaultAPIVersion, rec.Header().Get("X-API-Version"))
	}
	if captured != DefaultAPIVersion {
		t.Errorf("expected API version in context, got %q", captured)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("allows and sets headers", func(t *testing.T) {
		s := newTestServer()

		called := false
		handler := s.rateLimitMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})

		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		if !called {
			t.Error("expected handler to be called")
		}
		for _, h := range []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"} {
			if rec.Header().Get(h) == "" {
				t.Errorf("expected %s header", h)
			}
		}
	})

	t.Run("rejects when exhausted", func(t *testing.T) {
		s := newTestServer()
		s.rateLimiter = rate.NewLimiter(0, 0)

		called := false
		handler := s.rateLimitMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			called = true
		})

		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		if called {
			t.Error("handler should not be called when rate limited")
		}
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("expected status 429, got %d", rec.Code)
		}
	})
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	s := newTestServer()

	handler := s.panicRecoveryMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500 after panic recovery, got %d", rec.Code)
	}
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	s := newTestServer()

	handler := s.loggingMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", rec.Code)
	}
}

func TestResponseWriterRecordsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)

	if rw.Status() != http.StatusNotFound {
		t.Errorf("expected first status to stick, got %d", rw.Status())
	}
	if newResponseWriter(rw) != rw {
		t.Error("expected wrapping a responseWriter to return it unchanged")
	}
}
