/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package sync runs vCenter to NetBox synchronization: one run loads the
// CMDB, reconciles every configured source against it, writes the changes
// back, then announces and journals the outcome.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/vcsync/pkg/inventory"
	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/models"
	"github.com/carverauto/vcsync/pkg/netbox"
	"github.com/carverauto/vcsync/pkg/reconcile"
	"github.com/carverauto/vcsync/pkg/vsphere"
)

var (
	// ErrRunInProgress is returned by RunOnce while another run is active.
	ErrRunInProgress = errors.New("synchronization run already in progress")
	errNilConfig     = errors.New("config is nil")
	errNilCMDB       = errors.New("cmdb client is nil")
)

// Result summarizes one RunOnce call. Reports holds one report per source
// in source name order, including sources that failed to connect.
type Result struct {
	Started   time.Time
	Finished  time.Time
	Reports   []*models.Report
	Applied   *netbox.ApplyStats
	Published int
}

// Totals adds up the outcome counts of all reports.
func (r *Result) Totals() models.RunStats {
	var total models.RunStats

	for _, report := range r.Reports {
		stats := report.Stats()
		total.Created += stats.Created
		total.Updated += stats.Updated
		total.Skipped += stats.Skipped
	}

	return total
}

// Option customizes a Syncer.
type Option func(*Syncer)

// WithDialer replaces the vCenter dialer.
func WithDialer(d Dialer) Option {
	return func(s *Syncer) { s.dialer = d }
}

// WithEvents publishes created and updated entities after every run.
func WithEvents(p EventPublisher) Option {
	return func(s *Syncer) { s.events = p }
}

// WithJournal records every source report after every run.
func WithJournal(j RunJournal) Option {
	return func(s *Syncer) { s.journal = j }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Syncer) { s.clock = c }
}

// Syncer owns the synchronization loop.
type Syncer struct {
	config  *Config
	cmdb    CMDB
	dialer  Dialer
	events  EventPublisher
	journal RunJournal
	clock   Clock
	base    logger.Logger
	logger  logger.Logger
	tracer  trace.Tracer

	running atomic.Bool

	// mu orders wg.Add in Start against close(done) in Stop.
	mu       sync.Mutex
	stopping bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// New validates config and builds a Syncer writing to cmdb.
func New(config *Config, cmdb CMDB, log logger.Logger, opts ...Option) (*Syncer, error) {
	if config == nil {
		return nil, errNilConfig
	}

	if cmdb == nil {
		return nil, errNilCMDB
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Syncer{
		config: config,
		cmdb:   cmdb,
		dialer: &vsphereDialer{logger: log},
		clock:  systemClock{},
		base:   log,
		logger: log.WithComponent("sync"),
		tracer: otel.Tracer(meterName),
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// RunOnce performs one complete synchronization. A source that fails does
// not stop the others and the changes gathered so far are still applied;
// every failure is returned joined. Overlapping calls get ErrRunInProgress.
func (s *Syncer) RunOnce(ctx context.Context) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	ctx, span := s.tracer.Start(ctx, "sync.RunOnce",
		trace.WithAttributes(attribute.Int("vcsync.sources", len(s.config.Sources))))
	defer span.End()

	result := &Result{Started: s.clock.Now()}

	err := s.run(ctx, result)

	result.Finished = s.clock.Now()
	recordRun(ctx, err, result.Finished.Sub(result.Started))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}

func (s *Syncer) run(ctx context.Context, result *Result) error {
	store := inventory.New()

	if err := s.cmdb.Load(ctx, store); err != nil {
		return fmt.Errorf("failed to load CMDB: %w", err)
	}

	var (
		errs    []error
		runErrs []error
	)

	for _, name := range s.config.SourceNames() {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		report, err := s.runSource(ctx, store, name)
		if err != nil {
			err = fmt.Errorf("source %q: %w", name, err)
			errs = append(errs, err)

			s.logger.Error().Err(err).Str("source", name).Msg("Source reconciliation failed")
		}

		result.Reports = append(result.Reports, report)
		runErrs = append(runErrs, err)
	}

	stats, err := s.cmdb.Apply(ctx, store)
	result.Applied = stats

	if err != nil {
		errs = append(errs, fmt.Errorf("failed to apply changes: %w", err))
	}

	for i, report := range result.Reports {
		if s.events != nil && !s.config.NetBox.DryRun {
			sent, err := s.events.PublishReport(ctx, report)
			result.Published += sent

			if err != nil {
				errs = append(errs, fmt.Errorf("failed to publish events of %q: %w", report.Source, err))
			}
		}

		if s.journal != nil {
			if err := s.journal.Record(ctx, report, runErrs[i]); err != nil {
				errs = append(errs, fmt.Errorf("failed to journal run of %q: %w", report.Source, err))
			}
		}
	}

	return errors.Join(errs...)
}

// runSource reconciles one source into store. The returned report is never
// nil so that failed connections still reach the journal.
func (s *Syncer) runSource(ctx context.Context, store *inventory.Store, name string) (*models.Report, error) {
	src := s.config.Sources[name]

	opts, err := src.options(name)
	if err != nil {
		return s.emptyReport(name), err
	}

	backend, err := s.dialer.Dial(ctx, name, &src)
	if err != nil {
		return s.emptyReport(name), fmt.Errorf("failed to connect: %w", err)
	}

	defer func() {
		if err := backend.Close(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn().Err(err).Str("source", name).Msg("Failed to close source session")
		}
	}()

	report, err := reconcile.NewController(store, opts, s.base).Run(ctx, backend)
	if report == nil {
		report = s.emptyReport(name)
	}

	return report, err
}

func (s *Syncer) emptyReport(name string) *models.Report {
	now := s.clock.Now()

	return &models.Report{RunID: uuid.NewString(), Source: name, Started: now, Finished: now}
}

// Start runs once immediately, then on every poll interval until ctx is
// cancelled or Stop is called. Run failures are logged and retried on the
// next tick.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return nil
	}

	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	interval := s.config.Interval()

	ticker := s.clock.Ticker(interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", interval).Int("sources", len(s.config.Sources)).Msg("Starting sync loop")

	s.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-ticker.Chan():
			s.poll(ctx)
		}
	}
}

// Stop ends the loop started by Start and waits for the current run, or
// until ctx expires.
func (s *Syncer) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping sync loop")

	s.mu.Lock()
	if !s.stopping {
		s.stopping = true
		close(s.done)
	}
	s.mu.Unlock()

	stopped := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Syncer) poll(ctx context.Context) {
	result, err := s.RunOnce(ctx)
	if errors.Is(err, ErrRunInProgress) {
		s.logger.Warn().Msg("Skipping tick, previous run still in progress")
		return
	}

	if err != nil {
		s.logger.Error().Err(err).Msg("Synchronization run failed")
	}

	if result == nil {
		return
	}

	totals := result.Totals()

	event := s.logger.Info().
		Int("created", totals.Created).
		Int("updated", totals.Updated).
		Int("skipped", totals.Skipped).
		Int("published", result.Published).
		Dur("duration", result.Finished.Sub(result.Started))

	if result.Applied != nil {
		event = event.Int("write_failures", result.Applied.Failed)
	}

	event.Msg("Synchronization run finished")
}

// vsphereDialer connects to vCenter with govmomi.
type vsphereDialer struct {
	logger logger.Logger
}

func (d *vsphereDialer) Dial(ctx context.Context, name string, cfg *SourceConfig) (Backend, error) {
	subnets, err := cfg.subnets()
	if err != nil {
		return nil, err
	}

	src, err := vsphere.Dial(ctx, name, cfg.vsphereConfig(subnets), d.logger)
	if err != nil {
		return nil, err
	}

	return src, nil
}
