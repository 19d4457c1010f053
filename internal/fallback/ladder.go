// Package fallback runs the start-with-fallback ladder for background
// helpers: start it, and if that fails uninstall, reinstall and start again.
// The ladder is fixed and finite. Each rung runs at most once and the first
// terminal state ends it.
package fallback

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stevehiehn/trinity/internal/action"
	"github.com/stevehiehn/trinity/internal/logging"
	"github.com/stevehiehn/trinity/internal/metrics"
	"github.com/stevehiehn/trinity/internal/runner"
)

// Rung is one state of the ladder.
type Rung int

const (
	RungStart Rung = iota + 1
	RungUninstall
	RungReinstall
	RungRetryStart
)

func (r Rung) String() string {
	switch r {
	case RungStart:
		return "start"
	case RungUninstall:
		return "uninstall"
	case RungReinstall:
		return "reinstall"
	case RungRetryStart:
		return "retry_start"
	default:
		return "unknown"
	}
}

// Terminal labels.
const (
	LabelDirectStart               = "direct start"
	LabelFallbackStart             = "fallback start"
	LabelUninstallFailed           = "uninstall failed"
	LabelReinstallFailed           = "reinstall failed"
	LabelStartFailedAfterReinstall = "start failed after reinstall"
)

// Outcome is the terminal state of one ladder run. Rung and Results are for
// the audit trail; callers classify on Succeeded.
type Outcome struct {
	Succeeded bool
	Label     string
	Rung      Rung
	Results   []runner.Result
}

// Options configures an Engine.
type Options struct {
	Executor runner.Executor
	// Locate picks the executable to start; runner.Locate when nil.
	Locate  func(candidates []string) (string, bool)
	Logger  zerolog.Logger
	Metrics *metrics.Recorder
}

// Engine runs ladders. It is safe for concurrent use if its Executor is.
type Engine struct {
	exec    runner.Executor
	locate  func([]string) (string, bool)
	logger  zerolog.Logger
	metrics *metrics.Recorder
}

// New creates an Engine.
func New(opts Options) *Engine {
	locate := opts.Locate
	if locate == nil {
		locate = runner.Locate
	}
	return &Engine{
		exec:    opts.Executor,
		locate:  locate,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Run walks the ladder for h.
func (e *Engine) Run(ctx context.Context, h action.Helper) Outcome {
	log := logging.Enrich(ctx, e.logger).With().Str("helper", h.Name).Logger()
	var out Outcome

	finish := func(rung Rung, ok bool, label string) Outcome {
		out.Rung, out.Succeeded, out.Label = rung, ok, label
		ev := log.Info()
		if !ok {
			ev = log.Error()
		}
		ev.Str("rung", rung.String()).Str("outcome", label).Msg("Helper ladder finished")
		e.metrics.ObserveLadder(label)
		return out
	}

	rung := RungStart
	for {
		switch rung {
		case RungStart:
			if e.start(ctx, log, h) {
				return finish(RungStart, true, LabelDirectStart)
			}
			log.Warn().Msg("Failed to start helper from known locations, attempting uninstall and reinstall")
			rung = RungUninstall

		case RungUninstall:
			if !e.uninstall(ctx, log, h, &out) {
				return finish(RungUninstall, false, LabelUninstallFailed)
			}
			rung = RungReinstall

		case RungReinstall:
			res := e.exec.Run(ctx, runner.Install(h.InstallID))
			out.Results = append(out.Results, res)
			if !res.OK() {
				return finish(RungReinstall, false, LabelReinstallFailed)
			}
			log.Info().Str("id", h.InstallID).Msg("Helper reinstalled")
			rung = RungRetryStart

		case RungRetryStart:
			if e.start(ctx, log, h) {
				return finish(RungRetryStart, true, LabelFallbackStart)
			}
			return finish(RungRetryStart, false, LabelStartFailedAfterReinstall)

		default:
			return finish(rung, false, "unknown rung")
		}
	}
}

func (e *Engine) start(ctx context.Context, log zerolog.Logger, h action.Helper) bool {
	path, ok := e.locate(h.Candidates)
	if !ok {
		log.Warn().Strs("candidates", h.Candidates).Msg("Helper executable not found")
		return false
	}
	log.Debug().Str("path", path).Msg("Helper executable found")
	if err := e.exec.Start(ctx, path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Helper did not start")
		return false
	}
	return true
}

// uninstall tries each alias until one succeeds.
func (e *Engine) uninstall(ctx context.Context, log zerolog.Logger, h action.Helper, out *Outcome) bool {
	for _, id := range h.Aliases() {
		res := e.exec.Run(ctx, runner.Uninstall(id))
		out.Results = append(out.Results, res)
		if res.OK() {
			log.Info().Str("id", id).Msg("Helper uninstalled")
			return true
		}
		log.Warn().Str("id", id).Int("exit_code", res.ExitCode).Msg("Uninstall failed for alias")
	}
	return false
}
