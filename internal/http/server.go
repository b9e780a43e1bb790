// Package http exposes the ledger over HTTP. The layer is intentionally
// thin: the caller identity comes from the X-Ledger-Owner header as an
// opaque value and every semantic decision stays in the ledger.
package http

import (
	"net/http"
	"time"

	"github.com/Rajdeepm07/expensechart/internal/ledger"
	"github.com/Rajdeepm07/expensechart/internal/middleware/trace"
)

// OwnerHeader carries the caller identity for owner-gated operations.
const OwnerHeader = "X-Ledger-Owner"

type Server struct {
	*http.Server
	ledger *ledger.Ledger
}

func NewServer(addr string, l *ledger.Ledger) *Server {
	s := &Server{ledger: l}

	mux := http.NewServeMux()
	mux.HandleFunc("/expenses", s.handleExpenses)
	mux.HandleFunc("/expenses/ids", s.handleExpenseIDs)
	mux.HandleFunc("/expenses/total", s.handleTotal)
	mux.HandleFunc("/owner", s.handleTransferOwnership)
	mux.HandleFunc("/health", s.handleHealth)

	s.Server = &http.Server{
		Addr:           addr,
		Handler:        trace.Middleware(mux),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}

	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
