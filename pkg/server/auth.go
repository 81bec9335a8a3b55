package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	telemerrors "github.com/NVIDIA/fleet-telemetry/pkg/errors"
)

// IssueToken mints an HS256 bearer token accepted by the auth middleware.
func IssueToken(secret []byte, issuer, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", telemerrors.New(telemerrors.ErrCodeInvalidRequest, "token secret is empty")
	}
	if subject == "" {
		return "", telemerrors.New(telemerrors.ErrCodeInvalidRequest, "token subject is empty")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses a bearer token and returns its subject.
func VerifyToken(secret []byte, issuer, token string) (string, error) {
	if token == "" {
		return "", errors.New("empty token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter for browser websocket clients.
func bearerToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("access_token")
}

// authMiddleware rejects requests without a valid bearer token.
// It is a no-op when no secret is configured.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	if !s.config.AuthEnabled() {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := VerifyToken(s.config.AuthSecret, s.config.AuthIssuer, bearerToken(r))
		if err != nil {
			authRejects.Inc()
			w.Header().Set("WWW-Authenticate", `Bearer realm="telemetry"`)
			WriteError(w, r, http.StatusUnauthorized, telemerrors.ErrCodeUnauthorized,
				"missing or invalid token", false, nil)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeySubject, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
