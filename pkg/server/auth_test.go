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
	"time"
)

func TestIssueAndVerifyToken(t *testing.T) {
	secret := []byte("s3cret")

	token, err := IssueToken(secret, "telemd", "operator", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, err := VerifyToken(secret, "telemd", token)
	if err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
	if sub != "operator" {
		t.Errorf("expected subject operator, got %s", sub)
	}

	if _, err := VerifyToken([]byte("other"), "telemd", token); err == nil {
		t.Error("expected signature mismatch to fail")
	}
	if _, err := VerifyToken(secret, "someone-else", token); err == nil {
		t.Error("expected issuer mismatch to fail")
	}
}

func TestIssueTokenValidation(t *testing.T) {
	if _, err := IssueToken(nil, "", "operator", time.Hour); err == nil {
		t.Error("expected empty secret to fail")
	}
	if _, err := IssueToken([]byte("k"), "", "", time.Hour); err == nil {
		t.Error("expected empty subject to fail")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	secret := []byte("s3cret")
	token, err := IssueToken(secret, "", "operator", -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// a negative ttl means no expiry claim
	if _, err := VerifyToken(secret, "", token); err != nil {
		t.Errorf("expected token without expiry to verify, got %v", err)
	}

	token, err = IssueToken(secret, "", "operator", time.Nanosecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := VerifyToken(secret, "", token); err == nil {
		t.Error("expected expired token to fail")
	}
}

func TestAuthMiddleware(t *testing.T) {
	secret := []byte("s3cret")
	token, err := IssueToken(secret, "telemd", "operator", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name       string
		secret     []byte
		header     string
		query      string
		wantStatus int
		wantSub    string
	}{
		{name: "disabled", wantStatus: http.StatusOK},
		{name: "missing token", secret: secret, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", secret: secret, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "header token", secret: secret, header: "Bearer " + token, wantStatus: http.StatusOK, wantSub: "operator"},
		{name: "query token", secret: secret, query: "?access_token=" + token, wantStatus: http.StatusOK, wantSub: "operator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.config.AuthSecret = tt.secret
			s.config.AuthIssuer = "telemd"

			var sub string
			handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
				sub = Subject(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/v1/devices"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if sub != tt.wantSub {
				t.Errorf("expected subject %q, got %q", tt.wantSub, sub)
			}
		})
	}
}
