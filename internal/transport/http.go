package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ganot/placement-desk/internal/domain/distribution"
	"github.com/ganot/placement-desk/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler dispatches a named method on behalf of an operator.
type Handler interface {
	Handle(ctx context.Context, operator, method string, params json.RawMessage) (any, error)
}

// Exporter renders a company's student export.
type Exporter interface {
	ExportForCompany(ctx context.Context, companyID string, format distribution.Format) (*distribution.Export, error)
}

// Options wires the HTTP routes. Auth wraps every route except /health; a nil
// Auth leaves requests unattributed. MCP, when set, is mounted at /mcp and
// authenticates on its own.
type Options struct {
	Handler  Handler
	Exporter Exporter
	Auth     func(http.Handler) http.Handler
	MCP      http.Handler
	Logger   *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler  Handler
	exporter Exporter
	logger   *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	srv := &Server{handler: opts.Handler, exporter: opts.Exporter, logger: opts.Logger}

	r.Get("/health", srv.handleHealth)
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Post("/rpc", srv.handleRPC)
		if opts.Exporter != nil {
			r.Get("/export/{companyID}", srv.handleExport)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		if errors.Is(err, ErrParse) {
			WriteError(w, nil, ErrParseCode, "parse error", nil)
			return
		}
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	operator, _ := OperatorFromContext(r.Context())
	result, err := s.handler.Handle(r.Context(), operator, req.Method, req.Params)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if s.logger != nil {
			s.logger.Debug("rpc failed", "method", req.Method, "operator", operator, "error", err)
		}
		WriteDomainError(w, req.ID, err)
		return
	}

	WriteResult(w, req.ID, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	format := distribution.Format(r.URL.Query().Get("format"))

	export, err := s.exporter.ExportForCompany(r.Context(), companyID, format)
	if err != nil {
		http.Error(w, err.Error(), exportStatus(err))
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	if export.Format == distribution.FormatJSON {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(export.Students)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.CSV))
}

func exportStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrTransport), errors.Is(err, repository.ErrRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
