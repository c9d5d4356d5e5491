package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/nagare/pkg/controller/http/middleware"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/utils/safe"
)

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	journalUC  interfaces.JournalUseCases
	instanceUC interfaces.InstanceUseCases
	workflowUC interfaces.WorkflowUseCases
	authMW     *middleware.AuthMiddleware
}

// Options is a functional option for Server
type Options func(*Server)

// WithJournalUseCases sets the journal use cases
func WithJournalUseCases(uc interfaces.JournalUseCases) Options {
	return func(s *Server) {
		s.journalUC = uc
	}
}

// WithInstanceUseCases sets the instance use cases
func WithInstanceUseCases(uc interfaces.InstanceUseCases) Options {
	return func(s *Server) {
		s.instanceUC = uc
	}
}

// WithWorkflowUseCases sets the workflow use cases
func WithWorkflowUseCases(uc interfaces.WorkflowUseCases) Options {
	return func(s *Server) {
		s.workflowUC = uc
	}
}

// WithAuthMiddleware sets the authentication middleware
func WithAuthMiddleware(mw *middleware.AuthMiddleware) Options {
	return func(s *Server) {
		s.authMW = mw
	}
}

// New creates a new HTTP server
func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Apply middleware
	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		if s.authMW != nil {
			r.Use(s.authMW.Middleware)
		}

		r.Route("/instances/{instanceID}", func(r chi.Router) {
			r.Get("/", s.handleGetInstance)
			r.Patch("/", s.handleUpdateInstance)
			r.Patch("/status", s.handleUpdateStatus)
			r.Get("/journals", s.handleListJournals)
			r.Post("/journals", s.handleCreateJournal)
			r.Post("/chat", s.handleLogChat)
			r.Post("/error", s.handleLogError)
		})

		r.Route("/workflows", func(r chi.Router) {
			r.Post("/", s.handleCreateWorkflow)
			r.Route("/{workflowID}", func(r chi.Router) {
				r.Get("/", s.handleGetWorkflow)
				r.Get("/instances", s.handleListInstances)
				r.Post("/instances", s.handleCreateInstance)
				r.Delete("/nodes/{nodeID}", s.handleDeleteNode)
			})
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		safe.Write(r.Context(), w, []byte("OK"))
	})

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
