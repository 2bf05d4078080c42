package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/goliatone/go-dynform"
	"github.com/goliatone/go-dynform/pkg/catalogue"
	"github.com/goliatone/go-dynform/pkg/hosts/tui"
	"github.com/goliatone/go-dynform/pkg/render/html"
	"github.com/goliatone/go-dynform/pkg/request"
	"github.com/goliatone/go-dynform/pkg/session"
)

func main() {
	source := flag.String("catalogue", "examples/fixtures/catalogue.yaml", "catalogue document path (YAML or JSON)")
	collection := flag.String("collection", "", "collection to start with (first one if empty)")
	format := flag.String("format", "json", "request format: json, yaml, form or pretty")
	output := flag.String("output", "", "output file for the request (stdout if empty)")
	snapshot := flag.String("html", "", "write an HTML snapshot of the final form to this file")
	verbose := flag.Bool("verbose", false, "log engine activity to stderr")
	flag.Parse()

	reqFormat, err := request.ParseFormat(*format)
	if err != nil {
		log.Fatalf("Invalid format: %v", err)
	}
	path := strings.TrimSpace(*source)
	if path == "" {
		log.Fatal("catalogue path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cat, err := dynform.OpenCatalogue(ctx, catalogue.SourceFromFile(path))
	if err != nil {
		log.Fatalf("Failed to load catalogue: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	opts := []session.Option{session.WithLogger(logger)}
	if *collection != "" {
		opts = append(opts, session.WithInitialCollection(*collection))
	}
	sess, err := session.New(ctx, cat, opts...)
	if err != nil {
		log.Fatalf("Failed to build form: %v", err)
	}

	host, err := tui.New(sess, tui.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to start prompts: %v", err)
	}
	submission, err := host.Run(ctx)
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(os.Stderr, "Aborted.")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Form failed: %v", err)
	}

	if *snapshot != "" {
		if err := writeSnapshot(*snapshot, sess.View()); err != nil {
			log.Fatalf("Failed to write HTML snapshot: %v", err)
		}
	}

	payload, err := submission.Encode(reqFormat)
	if err != nil {
		log.Fatalf("Failed to encode request: %v", err)
	}
	if *output != "" {
		if err := os.WriteFile(*output, payload, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Request written to %s\n", *output)
		return
	}
	fmt.Println(strings.TrimRight(string(payload), "\n"))
}

func writeSnapshot(path string, view session.View) error {
	renderer, err := html.New()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := renderer.Page(f, view, html.PageOptions{}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
