package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ganot/placement-desk/internal/domain/activity"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type operatorKey struct{}

// OperatorResolver resolves the operator behind a bearer token.
type OperatorResolver interface {
	ResolveOperator(ctx context.Context, token string) (string, error)
}

// OperatorFromContext returns the operator from context, if present.
func OperatorFromContext(ctx context.Context) (string, bool) {
	operator, ok := ctx.Value(operatorKey{}).(string)
	return operator, ok
}

// WithOperator attributes ctx, and the activity it produces, to operator.
func WithOperator(ctx context.Context, operator string) context.Context {
	ctx = context.WithValue(ctx, operatorKey{}, operator)
	return activity.WithActor(ctx, operator)
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver OperatorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			operator, err := resolver.ResolveOperator(r.Context(), token)
			if err != nil || operator == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operator)))
		})
	}
}

// StaticOperator attributes every request to operator without checking
// credentials.
func StaticOperator(operator string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operator)))
		})
	}
}
