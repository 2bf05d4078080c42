package catalogue

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dynform/pkg/schema"
)

// ErrEmptyCatalogue is returned when a document declares no collections.
var ErrEmptyCatalogue = errors.New("catalogue: document declares no collections")

// documentFile is the on-disk shape of a catalogue. JSON documents decode
// through the same path since YAML is a superset.
type documentFile struct {
	Collections []documentCollection `yaml:"collections"`
}

type documentCollection struct {
	ID          string                         `yaml:"id"`
	Title       string                         `yaml:"title"`
	Form        yaml.Node                      `yaml:"form"`
	Constraints []map[string]schema.StringList `yaml:"constraints"`
	Rules       []Rule                         `yaml:"rules"`
}

// ParseOption configures ParseDocument.
type ParseOption func(*parseConfig)

type parseConfig struct {
	logger *slog.Logger
}

// WithParseLogger routes record-level decode diagnostics to logger.
func WithParseLogger(logger *slog.Logger) ParseOption {
	return func(cfg *parseConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// ParseDocument builds a Memory catalogue from a loaded document.
func ParseDocument(doc Document, options ...ParseOption) (*Memory, error) {
	cat, err := Parse(doc.Raw(), options...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Location(), err)
	}
	return cat, nil
}

// Parse builds a Memory catalogue from YAML or JSON bytes. Form records that
// fail to decode are logged and skipped; the rest of the collection loads.
func Parse(data []byte, options ...ParseOption) (*Memory, error) {
	cfg := parseConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyCatalogue
	}

	var file documentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalogue: parse document: %w", err)
	}
	if len(file.Collections) == 0 {
		return nil, ErrEmptyCatalogue
	}

	collections := make([]Collection, 0, len(file.Collections))
	for _, entry := range file.Collections {
		form, diags, err := schema.DecodeRawFieldNodes(&entry.Form)
		if err != nil {
			return nil, fmt.Errorf("catalogue: collection %q form: %w", entry.ID, err)
		}
		for _, diag := range diags {
			cfg.logger.Warn("skipping form record", "collection", entry.ID, "error", diag.Err)
		}

		combos := make([]Combination, 0, len(entry.Constraints))
		for _, row := range entry.Constraints {
			combo := make(Combination, len(row))
			for name, values := range row {
				combo[name] = []string(values)
			}
			combos = append(combos, combo)
		}

		c, err := NewCollection(entry.ID, entry.Title, form,
			WithCombinations(combos...),
			WithRules(entry.Rules...),
			WithCollectionLogger(cfg.logger),
		)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return NewMemory(collections...)
}
