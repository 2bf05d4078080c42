package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-dynform"
	"github.com/goliatone/go-dynform/pkg/catalogue"
	"github.com/goliatone/go-dynform/pkg/hosts/web"
)

func main() {
	source := flag.String("catalogue", "examples/fixtures/catalogue.yaml", "catalogue document path (YAML or JSON)")
	addr := flag.String("addr", ":8080", "listen address")
	maxAge := flag.Duration("session-max-age", 24*time.Hour, "maximum session lifetime")
	idle := flag.Duration("session-idle", time.Hour, "idle timeout for sessions")
	flag.Parse()

	listen := *addr
	if port := os.Getenv("PORT"); port != "" {
		listen = ":" + port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cat, err := dynform.OpenCatalogue(ctx, catalogue.SourceFromFile(*source))
	if err != nil {
		log.Fatalf("Failed to load catalogue: %v", err)
	}

	srv, err := web.New(cat,
		web.WithLogger(logger),
		web.WithSessionLimits(*maxAge, *idle),
	)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}
	if err := srv.Run(ctx, listen); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
