package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/samvad-hq/petfriends-harness/assets/images"
	"github.com/samvad-hq/petfriends-harness/internal/config"
	"github.com/samvad-hq/petfriends-harness/internal/harness"
	"github.com/samvad-hq/petfriends-harness/internal/logger"
	"github.com/samvad-hq/petfriends-harness/internal/storage"
	"github.com/samvad-hq/petfriends-harness/pkg/publishers"
)

// SmokeRunner runs the harness scenarios once against the configured
// deployment, keeps a local history of outcomes and reports them to the
// configured publishers.
type SmokeRunner struct {
	env       *harness.Env
	scenarios []harness.Scenario
	store     storage.Store
	fanout    *publishers.Fanout
	log       logger.Logger
	newRunID  func() string
}

// Report is the result of one smoke run.
type Report struct {
	RunID    string
	Outcomes []harness.Outcome
}

// Failed returns the number of failed scenarios.
func (r Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Passed() {
			n++
		}
	}
	return n
}

// NewSmokeRunner builds a smoke runner from config.
func NewSmokeRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*SmokeRunner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	client, err := NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	imagesDir, err := images.Resolve(cfg.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("resolve images dir: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		RecordTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"record_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	env := &harness.Env{
		Client:    client,
		Creds:     cfg.Credentials(),
		ImagesDir: imagesDir,
		Log:       log,
	}
	return newSmokeRunner(env, store, fanout, log), nil
}

func newSmokeRunner(env *harness.Env, store storage.Store, fanout *publishers.Fanout, log logger.Logger) *SmokeRunner {
	if store == nil {
		store, _ = storage.NewStore("none", "", storage.Options{})
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &SmokeRunner{
		env:       env,
		scenarios: harness.Scenarios(),
		store:     store,
		fanout:    fanout,
		log:       log,
		newRunID:  uuid.NewString,
	}
}

// buildFanout loads the publishers file. An empty path disables publishing.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		return publishers.NewFanout(nil), nil
	}

	pubFile, err := publishers.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers file: %w", err)
	}
	enabled := pubFile.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Select narrows the run to the named scenarios. No names keeps all of them.
func (r *SmokeRunner) Select(names ...string) error {
	selected, err := harness.Select(harness.Scenarios(), names...)
	if err != nil {
		return err
	}
	r.scenarios = selected
	return nil
}

// Run executes the selected scenarios once. The returned error names every
// failed scenario; recording and publishing failures are only logged.
func (r *SmokeRunner) Run(ctx context.Context) (Report, error) {
	if r == nil || r.env == nil {
		return Report{}, fmt.Errorf("smoke runner is not initialized")
	}

	report := Report{RunID: r.newRunID()}
	r.log.InfoObj("smoke run starting", "smoke_state", map[string]any{
		"run_id":           report.RunID,
		"base_url":         r.env.Client.BaseURL(),
		"scenarios_count":  len(r.scenarios),
		"publishers_count": r.fanout.Size(),
	})

	report.Outcomes = harness.RunAll(ctx, r.env, r.scenarios)
	for _, o := range report.Outcomes {
		r.record(ctx, report.RunID, o)
	}

	r.log.InfoObj("smoke run completed", "smoke_state", map[string]any{
		"run_id": report.RunID,
		"total":  len(report.Outcomes),
		"failed": report.Failed(),
	})
	return report, harness.Failures(report.Outcomes)
}

func (r *SmokeRunner) record(ctx context.Context, runID string, o harness.Outcome) {
	evt := publishers.NewEvent(runID, r.env.Client.BaseURL(), o.Scenario, o.StartedAt, o.Elapsed, o.Err)

	if err := r.store.RecordOutcome(storage.Record{
		RunID:      runID,
		Scenario:   o.Scenario,
		Passed:     evt.Passed,
		Error:      evt.Error,
		ElapsedMs:  evt.ElapsedMs,
		StartedAt:  evt.StartedAt,
		FinishedAt: evt.FinishedAt,
	}); err != nil {
		r.log.ErrorObj("record outcome failed", "error", err)
	}

	if _, err := r.fanout.Publish(ctx, evt); err != nil {
		r.log.ErrorObj("publish outcome failed", "error", err)
	}
}

// Close releases the store and publisher connections.
func (r *SmokeRunner) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if err := r.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := r.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
