// Package storage keeps a local history of harness runs.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Record is one scenario outcome from one run.
type Record struct {
	RunID      string    `json:"run_id"`
	Scenario   string    `json:"scenario"`
	Passed     bool      `json:"passed"`
	Error      string    `json:"error,omitempty"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store records scenario outcomes.
type Store interface {
	Close() error
	RecordOutcome(rec Record) error
	// Recent returns up to limit unexpired records, newest first.
	Recent(limit int) ([]Record, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	RecordTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultRecordTTL       = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = defaultRecordTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                 { return nil }
func (noopStore) RecordOutcome(Record) error   { return nil }
func (noopStore) Recent(int) ([]Record, error) { return nil, nil }
