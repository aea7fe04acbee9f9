// Package harness runs scenarios against a PetFriends deployment. Each
// scenario opens its own session and asserts on status codes and body
// fields; scenarios do not clean up after themselves, so they may observe
// each other's remote side effects.
package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samvad-hq/petfriends-harness/internal/logger"
	"github.com/samvad-hq/petfriends-harness/pkg/petfriends"
)

// Env is what every scenario runs against.
type Env struct {
	Client    *petfriends.Client
	Creds     petfriends.Credentials
	ImagesDir string
	// ScratchDir receives files generated during a run. Empty means os.TempDir.
	ScratchDir string
	Log        logger.Logger
}

// Photo returns the path of a bundled photo.
func (e *Env) Photo(name string) string { return filepath.Join(e.ImagesDir, name) }

func (e *Env) log() logger.Logger {
	if e.Log == nil {
		return &logger.NopLogger{}
	}
	return e.Log
}

// Scenario is one independent check.
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

// Outcome is the result of running one scenario.
type Outcome struct {
	Scenario  string
	Err       error
	StartedAt time.Time
	Elapsed   time.Duration
}

// Passed reports whether the scenario succeeded.
func (o Outcome) Passed() bool { return o.Err == nil }

// RunAll runs scenarios one after another. Once ctx is done the remaining
// scenarios are reported as failed with the context error.
func RunAll(ctx context.Context, env *Env, scenarios []Scenario) []Outcome {
	out := make([]Outcome, 0, len(scenarios))
	for _, sc := range scenarios {
		start := time.Now()
		var err error
		if err = ctx.Err(); err == nil {
			err = sc.Run(ctx, env)
		}
		o := Outcome{Scenario: sc.Name, Err: err, StartedAt: start, Elapsed: time.Since(start)}
		out = append(out, o)

		if o.Passed() {
			env.log().InfoObj("scenario passed", "scenario_result", map[string]any{
				"scenario":   o.Scenario,
				"elapsed_ms": o.Elapsed.Milliseconds(),
			})
		} else {
			env.log().WarnObj("scenario failed", "scenario_result", map[string]any{
				"scenario":   o.Scenario,
				"elapsed_ms": o.Elapsed.Milliseconds(),
				"error":      o.Err.Error(),
			})
		}
	}
	return out
}

// Failures joins the errors of failed outcomes, each prefixed by its scenario.
func Failures(outcomes []Outcome) error {
	var errs []error
	for _, o := range outcomes {
		if !o.Passed() {
			errs = append(errs, fmt.Errorf("%s: %w", o.Scenario, o.Err))
		}
	}
	return errors.Join(errs...)
}

// Select returns the named scenarios in the given order. No names selects all.
func Select(all []Scenario, names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return all, nil
	}
	idx := make(map[string]Scenario, len(all))
	for _, sc := range all {
		idx[sc.Name] = sc
	}
	out := make([]Scenario, 0, len(names))
	for _, n := range names {
		sc, ok := idx[strings.TrimSpace(n)]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", n)
		}
		out = append(out, sc)
	}
	return out, nil
}

func (e *Env) emptyPhoto() (string, func(), error) {
	f, err := os.CreateTemp(e.ScratchDir, "empty_photo-*.jpg")
	if err != nil {
		return "", nil, fmt.Errorf("create empty photo: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", nil, err
	}
	return name, func() { os.Remove(name) }, nil
}
