// Package http exposes the ledger over HTTP with JSON bodies and bearer
// token authorization.
package http

import (
	"context"
	"net/http"
	"sync"

	"ledgerd/internal/auth"
	"ledgerd/internal/core"
	"ledgerd/internal/service"
)

type Server struct {
	http.Server
	verifier       *auth.Verifier
	transactions   TransactionService
	rateLimiter    *rateLimiter
	allowedOrigins map[string]bool
	shutdownOnce   sync.Once
}

// TransactionService is the ledger surface the handlers call. Satisfied by
// *service.Transactions.
type TransactionService interface {
	Create(ctx context.Context, identity auth.Identity, kind core.Kind, f service.Fields) (core.Transaction, error)
	List(ctx context.Context, identity auth.Identity, kind core.Kind) ([]core.Transaction, error)
	Delete(ctx context.Context, identity auth.Identity, kind core.Kind, id string) error
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. Every ledger route sits behind token verification; there is
// no way to reach a handler without it.
func NewServer(addr string, verifier *auth.Verifier, transactions TransactionService, allowedOrigins []string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		verifier:       verifier,
		transactions:   transactions,
		rateLimiter:    newRateLimiter(),
		allowedOrigins: map[string]bool{},
	}
	for _, origin := range allowedOrigins {
		s.allowedOrigins[origin] = true
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/v1/add-income", s.guarded(s.requireAuth(s.handleCreate(core.KindIncome))))
	mux.HandleFunc("GET /api/v1/get-incomes", s.guarded(s.requireAuth(s.handleList(core.KindIncome))))
	mux.HandleFunc("DELETE /api/v1/delete-income/{id}", s.guarded(s.requireAuth(s.handleDelete(core.KindIncome))))

	mux.HandleFunc("POST /api/v1/add-expense", s.guarded(s.requireAuth(s.handleCreate(core.KindExpense))))
	mux.HandleFunc("GET /api/v1/get-expenses", s.guarded(s.requireAuth(s.handleList(core.KindExpense))))
	mux.HandleFunc("DELETE /api/v1/delete-expense/{id}", s.guarded(s.requireAuth(s.handleDelete(core.KindExpense))))

	// Preflight for the browser client plus a JSON 404 for unknown API routes.
	mux.HandleFunc("OPTIONS /api/v1/", s.guarded(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("/api/v1/", s.guarded(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "API route not found")
	}))

	return s
}

// Shutdown stops the server and its background cleanup exactly once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
