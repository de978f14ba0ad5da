// Package worker provides the HTTP service surface for rapport: raw event
// ingest, cycle triggers for the host scheduler, and the read side over
// conversation registrations and derived event histories.
package worker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	gormdb "github.com/thebtf/rapport/internal/db/gorm"
	"github.com/thebtf/rapport/internal/processor"
	"github.com/thebtf/rapport/internal/registry"
	"github.com/thebtf/rapport/internal/source"
)

// Service wires the HTTP router to the processing components.
type Service struct {
	version       string
	registry      *registry.Registry
	events        *gormdb.EventStore
	conversations *gormdb.ConversationStore
	processor     *processor.Processor
	hub           *source.Hub
	router        chi.Router
	startTime     time.Time
}

// NewService creates the service and mounts its routes.
func NewService(version string, reg *registry.Registry, events *gormdb.EventStore, conversations *gormdb.ConversationStore, proc *processor.Processor, hub *source.Hub) *Service {
	svc := &Service{
		version:       version,
		registry:      reg,
		events:        events,
		conversations: conversations,
		processor:     proc,
		hub:           hub,
		router:        chi.NewRouter(),
		startTime:     time.Now(),
	}
	svc.setupRoutes()
	return svc
}

// Router returns the mounted router.
func (s *Service) Router() http.Handler {
	return s.router
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/events", s.handleIngestEvents)
		r.Post("/users/{userID}/cycles", s.handleRunCycle)
		r.Get("/status", s.handleStatus)

		r.Route("/packages/{packageName}", func(r chi.Router) {
			r.Get("/events", s.handlePackageEvents)
			r.Get("/conversations", s.handleListConversations)
			r.Post("/conversations", s.handleRegisterConversation)
			r.Delete("/conversations/{shortcutID}", s.handleRemoveConversation)
		})
	})
}

// Serve runs the HTTP server until the context is canceled.
func (s *Service) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
