// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/dtobuddy/internal/activity"
	"github.com/matthewbaird/dtobuddy/internal/editor"
	"github.com/matthewbaird/dtobuddy/internal/event"
	"github.com/matthewbaird/dtobuddy/internal/eventbus"
	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/handler"
)

// Config holds server configuration.
type Config struct {
	Port int

	Sessions  *editor.Manager
	IDs       fieldtree.IDGenerator
	Assistant handler.Assistant // optional
	Recorder  event.Recorder    // optional

	// History, Stats and Bus back the event endpoints; all are optional.
	History activity.Store
	Stats   *eventbus.Stats
	Bus     *eventbus.Bus
}

// NewRouter registers every route. It also installs cfg.Recorder as the
// handler package's recorder.
func NewRouter(cfg Config) http.Handler {
	handler.SetRecorder(cfg.Recorder)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	gh := handler.NewGenerateHandler()
	r.Post("/v1/generate", gh.Generate)
	r.Post("/v1/generate/dto", gh.GenerateDTO)
	r.Post("/v1/generate/model", gh.GenerateModel)

	fh := handler.NewFieldHandler(cfg.IDs)
	r.Post("/v1/fields", fh.NewField)
	r.Post("/v1/fields/update", fh.UpdateField)
	r.Post("/v1/fields/remove", fh.RemoveField)

	ah := handler.NewAssistHandler(cfg.Assistant)
	r.Post("/v1/assist/generate", ah.Generate)
	r.Post("/v1/assist/improve", ah.Improve)
	r.Post("/v1/assist/validations", ah.Validations)

	editor.RegisterRoutes(r, editor.NewHandler(cfg.Sessions, cfg.Assistant, cfg.Recorder), cfg.History)

	if cfg.Stats != nil {
		r.Get("/v1/stats", func(w http.ResponseWriter, r *http.Request) {
			snap := cfg.Stats.Snapshot()
			if cfg.Bus != nil {
				snap.Dropped = cfg.Bus.Dropped()
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(snap)
		})
	}

	return handler.Recovery(handler.Logging(r))
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("starting server on %s", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
