// Package server owns the HTTP mux and lifecycle for the attendance API.
package server

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
	metricsmiddleware "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	middlewarestd "github.com/slok/go-http-metrics/middleware/std"

	configv1 "github.com/clockwise-hq/clockwise/pkg/apis/config/v1"
	"github.com/clockwise-hq/clockwise/pkg/api"
	"github.com/clockwise-hq/clockwise/pkg/apis/cache"
	"github.com/clockwise-hq/clockwise/pkg/correction"
	"github.com/clockwise-hq/clockwise/pkg/db"
	"github.com/clockwise-hq/clockwise/pkg/ledger"
	"github.com/clockwise-hq/clockwise/pkg/scope"
)

type Server struct {
	listenAddr string
	db         *db.DB
	ledger     *ledger.Ledger
	scopes     *scope.Resolver
	workflow   *correction.Workflow
	cache      cache.Cache
	limits     configv1.LimitsConfig
	httpServer *http.Server
}

func New(listenAddr string, dbc *db.DB, shiftCache cache.Cache, limits configv1.LimitsConfig) *Server {
	limits.ApplyDefaults()
	return &Server{
		listenAddr: listenAddr,
		db:         dbc,
		ledger:     ledger.New(dbc, limits),
		scopes:     scope.NewResolver(scope.NewDBStore(dbc)),
		workflow:   correction.NewWorkflow(correction.NewStore(dbc)),
		cache:      shiftCache,
		limits:     limits,
	}
}

func (s *Server) Serve() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, req *http.Request) {
		api.Health(w, s.db)
	})
	mux.HandleFunc("GET /api/events", func(w http.ResponseWriter, req *http.Request) {
		api.ListEvents(w, req, s.ledger, s.scopes)
	})
	mux.HandleFunc("POST /api/events", func(w http.ResponseWriter, req *http.Request) {
		api.RecordEvent(w, req, s.ledger, s.scopes)
	})
	mux.HandleFunc("PATCH /api/events/{id}", func(w http.ResponseWriter, req *http.Request) {
		api.EditEvent(w, req, s.ledger, s.scopes)
	})
	mux.HandleFunc("DELETE /api/events/{id}", func(w http.ResponseWriter, req *http.Request) {
		api.DeleteEvent(w, req, s.ledger, s.scopes)
	})
	mux.HandleFunc("POST /api/events/import", func(w http.ResponseWriter, req *http.Request) {
		api.ImportEvents(w, req, s.ledger, s.scopes, s.limits.ImportBatchLimit)
	})
	mux.HandleFunc("GET /api/shifts", func(w http.ResponseWriter, req *http.Request) {
		api.ListShifts(w, req, s.ledger, s.scopes, s.cache)
	})
	mux.HandleFunc("POST /api/corrections", func(w http.ResponseWriter, req *http.Request) {
		api.ApplyCorrection(w, req, s.workflow)
	})
	mux.HandleFunc("GET /api/audit", func(w http.ResponseWriter, req *http.Request) {
		api.QueryAuditLog(w, req, s.db, s.scopes)
	})

	mdlw := middleware.New(middleware.Config{
		Recorder: metricsmiddleware.NewRecorder(metricsmiddleware.Config{}),
	})

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: middlewarestd.Handler("", mdlw, mux),
	}

	log.Infof("serving attendance API on %s", s.listenAddr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
