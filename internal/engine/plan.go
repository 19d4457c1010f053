package engine

import (
	"strings"

	"github.com/stevehiehn/trinity/internal/action"
	"github.com/stevehiehn/trinity/internal/runner"
)

// Step is the dry-run view of one action.
type Step struct {
	ActionID    string   `json:"action_id"`
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Commands    []string `json:"commands"`
}

// Plan lists what a batch of actions would run, without running anything.
// render turns an invocation into its command line.
func Plan(actions []action.Descriptor, render func(runner.Invocation) string) []Step {
	steps := make([]Step, 0, len(actions))
	for _, a := range actions {
		steps = append(steps, Step{
			ActionID:    a.ID,
			Kind:        a.Kind.String(),
			Description: a.Describe(),
			Commands:    planCommands(a, render),
		})
	}
	return steps
}

func planCommands(a action.Descriptor, render func(runner.Invocation) string) []string {
	switch a.Kind {
	case action.KindInstallPackage:
		return []string{render(runner.Install(a.Package))}
	case action.KindRunCommand:
		return []string{render(runner.Script(a.Command))}
	case action.KindSetRegistryValues:
		var cmds []string
		for _, e := range a.Registry {
			cmds = append(cmds, render(runner.Script(e.Script())))
		}
		return cmds
	case action.KindSetServiceState:
		var cmds []string
		for _, e := range a.Services {
			cmds = append(cmds, render(runner.Script(e.Script())))
		}
		return cmds
	case action.KindStartHelperWithFallback:
		if a.Helper == nil {
			return nil
		}
		h := a.Helper
		start := "start first found: " + strings.Join(h.Candidates, ", ")
		cmds := []string{start}
		for _, id := range h.Aliases() {
			cmds = append(cmds, "on failure: "+render(runner.Uninstall(id)))
		}
		return append(cmds, "then: "+render(runner.Install(h.InstallID)), "then: "+start)
	default:
		return nil
	}
}
