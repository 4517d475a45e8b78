package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

type testResolver struct {
	tokenToOperator map[string]string
	err             error
}

func (r *testResolver) ResolveOperator(_ context.Context, token string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	operator, ok := r.tokenToOperator[token]
	if !ok {
		return "", ErrUnauthorized
	}
	return operator, nil
}

func TestAuthMiddleware(t *testing.T) {
	resolver := &testResolver{tokenToOperator: map[string]string{"token": "placement-officer"}}

	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator, ok := OperatorFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "placement-officer", operator)
		require.Equal(t, "placement-officer", activity.ActorFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	cases := map[string]struct {
		resolver *testResolver
		header   string
	}{
		"resolver error": {resolver: &testResolver{err: errors.New("invalid")}, header: "Bearer token"},
		"unknown token":  {resolver: &testResolver{}, header: "Bearer other"},
		"missing token":  {resolver: &testResolver{}, header: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := AuthMiddleware(tc.resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestStaticOperator(t *testing.T) {
	handler := StaticOperator("local")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator, _ := OperatorFromContext(r.Context())
		require.Equal(t, "local", operator)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
