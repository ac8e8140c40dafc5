package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	statusTimeFormat = "2006-01-02T15:04:05.000Z"
	findingsLimit    = 100
)

type statusResponse struct {
	Status         string `json:"status"`
	Scraping       bool   `json:"scraping"`
	TotalFound     int64  `json:"totalFound"`
	ProcessedUAIDs int    `json:"processedUAIDs"`
	Timestamp      string `json:"timestamp"`
}

// newStatusRouter serves read-only progress. It never mutates pipeline state.
func newStatusRouter(view StatusView, ledger Ledger, now func() time.Time, log zerolog.Logger) http.Handler {
	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)

	mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, log, statusResponse{
			Status:         "healthy",
			Scraping:       view.Scraping(),
			TotalFound:     view.TotalFound(),
			ProcessedUAIDs: view.ProcessedUAIDs(),
			Timestamp:      now().UTC().Format(statusTimeFormat),
		})
	})

	mux.Get("/findings", func(w http.ResponseWriter, r *http.Request) {
		found, err := ledger.List(r.Context(), findingsLimit)
		if err != nil {
			log.Error().Err(err).Msg("listing findings failed")
			http.Error(w, "could not list findings", http.StatusInternalServerError)
			return
		}
		writeJSON(w, log, found)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("writing response failed")
	}
}

// statusServer runs the status router until Shutdown.
type statusServer struct {
	srv *http.Server
	log zerolog.Logger
}

func newStatusServer(port string, h http.Handler, log zerolog.Logger) *statusServer {
	return &statusServer{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run blocks until the server stops. A graceful shutdown is not an error.
func (s *statusServer) Run() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("status server listening")
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *statusServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
