package jwtverify

import (
	"context"
	"net/http"
	"strings"

	commonerrors "github.com/jakobkordez/wmm-reborn/internal/common/errors"
	commonhttp "github.com/jakobkordez/wmm-reborn/internal/common/http"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
)

type Claims struct {
	UserID   int64
	Username string
}

// Validator checks an access token and returns the identity it carries.
type Validator interface {
	ValidateAccessToken(token string) (Claims, error)
}

type ValidatorFunc func(token string) (Claims, error)

func (f ValidatorFunc) ValidateAccessToken(token string) (Claims, error) {
	return f(token)
}

type contextKey string

const claimsKey contextKey = "jwt_claims"

// Middleware rejects requests without a valid bearer access token with 401
// and otherwise stores the caller's claims on the request context.
func Middleware(validator Validator, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				log.WithFields(r.Context(), logger.Fields{"path": r.URL.Path}).Debug("jwt auth failed: missing bearer token")
				writeAuthRequired(w, r)
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{"path": r.URL.Path}).Debugf("jwt auth failed: %v", err)
				writeAuthRequired(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(raw, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func FromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}

func writeAuthRequired(w http.ResponseWriter, r *http.Request) {
	commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized,
		commonerrors.ErrAuthRequired.Code(),
		commonerrors.ErrAuthRequired.Message(),
		nil,
		commonhttp.TraceIDFromContext(r.Context()),
	)
}
