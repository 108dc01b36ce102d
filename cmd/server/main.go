package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/matthewbaird/dtobuddy/internal/activity"
	"github.com/matthewbaird/dtobuddy/internal/artifact"
	"github.com/matthewbaird/dtobuddy/internal/assist"
	"github.com/matthewbaird/dtobuddy/internal/config"
	"github.com/matthewbaird/dtobuddy/internal/editor"
	"github.com/matthewbaird/dtobuddy/internal/event"
	"github.com/matthewbaird/dtobuddy/internal/eventbus"
	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/server"
	"github.com/matthewbaird/dtobuddy/internal/types"
	"github.com/matthewbaird/dtobuddy/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.File != "" {
		log.Printf("config: %s", cfg.File)
	}

	ids := fieldtree.NewULIDGenerator(nil, nil)

	sessions := editor.NewManager(ids, cfg.Session.MaxAge, cfg.Session.IdleTimeout)
	go sessions.RunCleanup(ctx, time.Minute)

	bus := eventbus.New(cfg.EventBuffer)
	stats := eventbus.NewStats()
	bus.Subscribe("log", eventbus.NewLogConsumer(nil))
	bus.Subscribe("stats", stats)
	if cfg.ExportDir != "" {
		lookup := func(id string) (types.Schema, bool) {
			sess := sessions.Get(id)
			if sess == nil {
				return types.Schema{}, false
			}
			return sess.Schema(), true
		}
		bus.Subscribe("export", worker.NewExportWorker(lookup, artifact.NewWriter(afero.NewOsFs(), cfg.ExportDir)))
		log.Printf("exporting session artifacts to %s", cfg.ExportDir)
	}
	bus.Start(ctx)
	defer bus.Stop()

	history := activity.NewMemoryStore(0)
	recorder := event.NewActivityRecorder(history)
	recorder.SetPublisher(bus)

	var assistant *assist.Assistant
	if cfg.Assist.APIKey != "" {
		assistant = assist.New(assist.NewGeminiClient(assist.GeminiConfig{
			Endpoint: cfg.Assist.Endpoint,
			Model:    cfg.Assist.Model,
			APIKey:   cfg.Assist.APIKey,
			Timeout:  cfg.Assist.Timeout,
		}), ids)
	} else {
		log.Println("assistant disabled: set DTOBUDDY_ASSIST_API_KEY or GOOGLE_API_KEY to enable it")
	}

	scfg := server.Config{
		Port:     cfg.Port,
		Sessions: sessions,
		IDs:      ids,
		Recorder: recorder,
		History:  history,
		Stats:    stats,
		Bus:      bus,
	}
	if assistant != nil {
		scfg.Assistant = assistant
	}
	if err := server.Run(ctx, scfg); err != nil {
		log.Printf("server error: %v", err)
		stop()
		os.Exit(1)
	}
}
