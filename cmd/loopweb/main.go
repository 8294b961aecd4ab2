// Command loopweb serves the looped generation driver over HTTP with a live
// WebSocket progress stream.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"loop-studio/internal/ai"
	"loop-studio/internal/config"
	"loop-studio/internal/generate"
	"loop-studio/internal/media"
	"loop-studio/internal/notify"
	"loop-studio/internal/server"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	backend := flag.String("backend", "pipeline", "Generation backend: pipeline or veo")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if err := media.CheckDependencies(); err != nil {
		log.Fatalf("Preflight failed: %v", err)
	}

	var gen generate.Generator
	switch *backend {
	case "pipeline":
		gen = &generate.Pipeline{
			Bin:        cfg.PipelineBin,
			Script:     cfg.PipelineScript,
			ConfigPath: cfg.PipelineConfig,
		}
	case "veo":
		svc, err := ai.NewService(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Vertex AI error: %v", err)
		}
		gen = &generate.Veo{Service: svc, Model: cfg.VeoModel}
	default:
		log.Fatalf("unknown backend %q (expected pipeline or veo)", *backend)
	}

	notifier := notify.New(notify.SettingsFromConfig(cfg))

	srv := server.New(cfg, gen, notifier)
	log.Printf("listening on %s", *addr)
	if err := http.ListenAndServe(*addr, srv.Handler()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
