package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/ganot/placement-desk/internal/domain/activity"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultOperator is attributed to requests when auth is off.
const DefaultOperator = "local"

type contextKey int

const operatorKey contextKey = iota

func getOperator(ctx context.Context) string {
	v, _ := ctx.Value(operatorKey).(string)
	return v
}

// OperatorResolver resolves the operator behind a bearer token.
type OperatorResolver interface {
	ResolveOperator(ctx context.Context, token string) (string, error)
}

func withOperator(ctx context.Context, operator string) context.Context {
	ctx = context.WithValue(ctx, operatorKey, operator)
	return activity.WithActor(ctx, operator)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver OperatorResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Protocol handshakes carry no operator.
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			operator, err := resolver.ResolveOperator(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}
			if operator == "" {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}

			return next(withOperator(ctx, operator), method, req)
		}
	}
}

// noAuthMiddleware attributes every request to one operator.
func noAuthMiddleware(operator string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(withOperator(ctx, operator), method, req)
		}
	}
}
