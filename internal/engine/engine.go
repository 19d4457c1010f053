// Package engine runs batches of actions. Each batch gets one goroutine that
// executes its actions in submission order and delivers a single Report on
// the batch's channel.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stevehiehn/trinity/internal/action"
	"github.com/stevehiehn/trinity/internal/artifact"
	trerrors "github.com/stevehiehn/trinity/internal/errors"
	"github.com/stevehiehn/trinity/internal/fallback"
	"github.com/stevehiehn/trinity/internal/logging"
	"github.com/stevehiehn/trinity/internal/metrics"
	"github.com/stevehiehn/trinity/internal/runner"
)

// Options configures an Orchestrator.
type Options struct {
	Executor runner.Executor
	// Ladder runs StartHelperWithFallback actions; built from Executor when nil.
	Ladder  *fallback.Engine
	Logger  zerolog.Logger
	Metrics *metrics.Recorder
	Clock   clockwork.Clock
	// StateDir receives per-batch artifacts. Empty disables them.
	StateDir string
}

// Orchestrator accepts batches. It is safe for concurrent use.
type Orchestrator struct {
	exec     runner.Executor
	ladder   *fallback.Engine
	logger   zerolog.Logger
	metrics  *metrics.Recorder
	clock    clockwork.Clock
	stateDir string
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		exec:     opts.Executor,
		ladder:   opts.Ladder,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		stateDir: opts.StateDir,
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	if o.ladder == nil {
		o.ladder = fallback.New(fallback.Options{Executor: o.exec, Logger: o.logger, Metrics: o.metrics})
	}
	return o
}

// Submit starts a batch and returns without waiting for it. An empty
// submission returns errors.ErrNothingSelected and starts nothing.
func (o *Orchestrator) Submit(actions []action.Descriptor) (*Batch, error) {
	if len(actions) == 0 {
		return nil, trerrors.ErrNothingSelected
	}
	seen := make(map[string]bool, len(actions))
	for _, a := range actions {
		if seen[a.ID] {
			return nil, trerrors.NewValidationError(
				fmt.Sprintf("duplicate action id %q", a.ID),
				"Each action may be selected once per batch",
			)
		}
		seen[a.ID] = true
	}

	b := &Batch{
		ID:      uuid.New().String(),
		actions: slices.Clone(actions),
		done:    make(chan struct{}),
	}
	go o.run(b)
	return b, nil
}

func (o *Orchestrator) run(b *Batch) {
	ctx := logging.WithAction(context.Background(), b.ID, "")
	log := logging.Enrich(ctx, o.logger)

	report := Report{
		BatchID:   b.ID,
		Succeeded: []string{},
		Failed:    []string{},
		StartedAt: o.clock.Now(),
	}
	store := o.openStore(b.ID, log)
	log.Info().Int("actions", len(b.actions)).Msg("Batch started")

	for _, a := range b.actions {
		ar := o.runAction(ctx, b.ID, a, store)
		report.Actions = append(report.Actions, ar)
		if ar.Status == StatusSucceeded {
			report.Succeeded = append(report.Succeeded, a.ID)
		} else {
			report.Failed = append(report.Failed, a.ID)
		}
	}

	report.FinishedAt = o.clock.Now()
	if store != nil {
		report.Artifacts = store.BaseDir
		if err := store.WriteReport(report); err != nil {
			log.Warn().Err(err).Msg("Failed to write batch report")
		}
	}
	log.Info().
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Batch finished")

	b.finish(report)
}

func (o *Orchestrator) openStore(batchID string, log zerolog.Logger) *artifact.Store {
	if o.stateDir == "" {
		return nil
	}
	store, err := artifact.New(batchID, o.stateDir)
	if err != nil {
		log.Warn().Err(err).Msg("Batch artifacts disabled")
		return nil
	}
	return store
}

// runAction runs one action to completion. A panic fails this action only.
func (o *Orchestrator) runAction(parent context.Context, batchID string, a action.Descriptor, store *artifact.Store) ActionResult {
	ctx := logging.WithAction(parent, batchID, a.ID)
	log := logging.Enrich(ctx, o.logger).With().Str("kind", a.Kind.String()).Logger()
	start := o.clock.Now()
	log.Info().Str("action", a.Describe()).Msg("Action started")

	out := o.protect(ctx, log, a)
	elapsed := o.clock.Since(start)

	ar := ActionResult{
		ID:       a.ID,
		Kind:     a.Kind.String(),
		Status:   StatusFailed,
		Label:    out.label,
		Duration: elapsed.String(),
	}
	if out.ok {
		ar.Status = StatusSucceeded
	}
	if out.err != nil {
		ar.Error = out.err.Error()
	}
	for _, r := range out.results {
		ar.Commands = append(ar.Commands, CommandResult{Command: r.CommandLine, ExitCode: r.ExitCode, OK: r.OK()})
	}

	if store != nil {
		stdout, stderr := collect(out.results)
		if err := store.WriteActionOutput(a.ID, stdout, stderr); err != nil {
			log.Warn().Err(err).Msg("Failed to write action output")
		}
	}
	o.metrics.ObserveAction(a.Kind.String(), out.ok, elapsed)

	ev := log.Info()
	if !out.ok {
		ev = log.Error().AnErr("reason", out.err)
	}
	ev.Str("status", ar.Status).Str("label", ar.Label).Dur("duration", elapsed).Msg("Action finished")
	return ar
}

func (o *Orchestrator) protect(ctx context.Context, log zerolog.Logger, a action.Descriptor) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("Action panicked")
			out = outcome{err: trerrors.NewActionError(trerrors.ActionPanicked, a.ID, fmt.Sprint(r))}
		}
	}()
	return o.dispatch(ctx, log, a)
}

// collect joins the captured output of every invocation of an action.
func collect(results []runner.Result) (string, string) {
	var stdout, stderr strings.Builder
	for _, r := range results {
		stdout.WriteString(r.Stdout)
		stderr.WriteString(r.Stderr)
	}
	return stdout.String(), stderr.String()
}
