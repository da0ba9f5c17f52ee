// Package server wires the HTTP API together.
package server

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/marcosogg/budgetflow/internal/approval"
	"github.com/marcosogg/budgetflow/internal/category"
	"github.com/marcosogg/budgetflow/internal/handlers"
	"github.com/marcosogg/budgetflow/internal/middleware"
	"github.com/marcosogg/budgetflow/internal/revolut"
	"github.com/marcosogg/budgetflow/internal/store"
)

// Server is the budget API server.
type Server struct {
	mux *http.ServeMux
	log *logrus.Logger
}

// New assembles the server over an open store.
func New(st *store.Store, table *category.Table, sink revolut.FailureSink, log *logrus.Logger) *Server {
	s := &Server{
		mux: http.NewServeMux(),
		log: log,
	}
	s.setupRoutes(st, table, sink)
	return s
}

func (s *Server) setupRoutes(st *store.Store, table *category.Table, sink revolut.FailureSink) {
	// Health check, no identity required.
	s.mux.HandleFunc("/health", handlers.HealthCheck)

	api := handlers.NewAPIHandler(st, approval.NewService(st), revolut.NewParser(table, sink), table, s.log)

	s.mux.Handle("/api/budgets", middleware.RequireUser(http.HandlerFunc(api.Budgets)))
	s.mux.Handle("/api/transactions", middleware.RequireUser(http.HandlerFunc(api.Transactions)))
	s.mux.Handle("/api/import", middleware.RequireUser(http.HandlerFunc(api.Import)))
	s.mux.Handle("/api/approvals", middleware.RequireUser(http.HandlerFunc(api.Approvals)))
	s.mux.Handle("/api/reminders", middleware.RequireUser(http.HandlerFunc(api.Reminders)))
	s.mux.Handle("/api/reconcile", middleware.RequireUser(http.HandlerFunc(api.Reconcile)))
}

// Handler returns the HTTP handler with the outer middleware applied.
func (s *Server) Handler() http.Handler {
	return middleware.CORS(middleware.RequestLogger(s.log)(s.mux))
}
