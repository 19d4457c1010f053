package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stevehiehn/trinity/internal/action"
	trerrors "github.com/stevehiehn/trinity/internal/errors"
	"github.com/stevehiehn/trinity/internal/runner"
)

// outcome is what a per-kind handler reports back to runAction.
type outcome struct {
	ok      bool
	label   string
	results []runner.Result
	err     error
}

func (o *Orchestrator) dispatch(ctx context.Context, log zerolog.Logger, a action.Descriptor) outcome {
	switch a.Kind {
	case action.KindInstallPackage:
		return o.all(ctx, a.ID, runner.Install(a.Package))
	case action.KindRunCommand:
		return o.all(ctx, a.ID, runner.Script(a.Command))
	case action.KindSetRegistryValues:
		invs := make([]runner.Invocation, 0, len(a.Registry))
		for _, e := range a.Registry {
			invs = append(invs, runner.Script(e.Script()))
		}
		return o.all(ctx, a.ID, invs...)
	case action.KindSetServiceState:
		invs := make([]runner.Invocation, 0, len(a.Services))
		for _, e := range a.Services {
			invs = append(invs, runner.Script(e.Script()))
		}
		return o.all(ctx, a.ID, invs...)
	case action.KindStartHelperWithFallback:
		if a.Helper == nil {
			return outcome{err: trerrors.NewActionError(trerrors.ValidationError, a.ID, "missing helper payload")}
		}
		lo := o.ladder.Run(ctx, *a.Helper)
		out := outcome{ok: lo.Succeeded, label: lo.Label, results: lo.Results}
		if !lo.Succeeded {
			out.err = trerrors.NewActionError(trerrors.LadderExhausted, a.ID, lo.Label)
		}
		return out
	default:
		log.Error().Str("type", trerrors.UnknownKind).Msg("Unknown action kind")
		return outcome{err: trerrors.NewActionError(trerrors.UnknownKind, a.ID, fmt.Sprintf("unknown kind %s", a.Kind))}
	}
}

// all runs every invocation and succeeds only if each one is OK. A failing
// invocation does not stop the ones after it.
func (o *Orchestrator) all(ctx context.Context, actionID string, invs ...runner.Invocation) outcome {
	out := outcome{ok: true}
	for _, inv := range invs {
		res := o.exec.Run(ctx, inv)
		out.results = append(out.results, res)
		if res.OK() {
			continue
		}
		out.ok = false
		if out.err == nil {
			out.err = resultError(actionID, res)
		}
	}
	return out
}

func resultError(actionID string, res runner.Result) error {
	if res.SpawnErr != nil {
		e := trerrors.NewActionError(trerrors.SpawnFailed, actionID, fmt.Sprintf("could not start %q", res.CommandLine))
		e.Wrapped = res.SpawnErr
		return e
	}
	return trerrors.NewActionError(trerrors.NonZeroExit, actionID, fmt.Sprintf("%q exited with code %d", res.CommandLine, res.ExitCode))
}
