package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/stevehiehn/trinity/internal/engine"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1F4E79", Dark: "#7FB3E6"})
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1B7F3B", Dark: "#5FD787"})
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#FF6B6B"})
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#8A8A8A"})
)

// renderer prints batch reports and dry-run plans. It is the completion
// sink for the CLI.
type renderer struct {
	out    io.Writer
	json   bool
	styled bool
	failed int
}

func newRenderer(out io.Writer, jsonOut bool) *renderer {
	return &renderer{out: out, json: jsonOut, styled: !jsonOut && isStyledTerminal(out)}
}

// isStyledTerminal reports whether out is a color-capable terminal.
func isStyledTerminal(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return termenv.NewOutput(f).ColorProfile() != termenv.Ascii
}

func (r *renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

// Complete implements engine.Sink.
func (r *renderer) Complete(rep engine.Report) {
	r.failed += len(rep.Failed)
	if r.json {
		_ = json.NewEncoder(r.out).Encode(rep)
		return
	}

	fmt.Fprintln(r.out, r.style(titleStyle, fmt.Sprintf("Batch %s", rep.BatchID)))
	for _, a := range rep.Actions {
		mark := r.style(successStyle, "✓")
		if a.Status != engine.StatusSucceeded {
			mark = r.style(errorStyle, "✗")
		}
		line := fmt.Sprintf("  %s %s", mark, a.ID)
		if a.Label != "" {
			line += " " + r.style(mutedStyle, "("+a.Label+")")
		}
		fmt.Fprintln(r.out, line)
		if a.Error != "" {
			fmt.Fprintln(r.out, "      "+r.style(mutedStyle, a.Error))
		}
	}

	summary := fmt.Sprintf("%d succeeded, %d failed", len(rep.Succeeded), len(rep.Failed))
	if rep.Success() {
		summary = r.style(successStyle, summary)
	} else {
		summary = r.style(errorStyle, summary)
	}
	fmt.Fprintf(r.out, "\n%s in %s\n", summary, rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond))
	if len(rep.Failed) > 0 {
		fmt.Fprintf(r.out, "Failed: %s\n", strings.Join(rep.Failed, ", "))
	}
	if rep.Artifacts != "" {
		fmt.Fprintln(r.out, r.style(mutedStyle, "Artifacts: "+rep.Artifacts))
	}
}

// Plan prints a dry run.
func (r *renderer) Plan(steps []engine.Step) {
	if r.json {
		_ = json.NewEncoder(r.out).Encode(map[string]any{"steps": steps})
		return
	}
	fmt.Fprintln(r.out, r.style(titleStyle, fmt.Sprintf("Dry-run: %d action(s)", len(steps))))
	fmt.Fprintln(r.out)
	for _, s := range steps {
		fmt.Fprintf(r.out, "Action: %s [%s]\n", s.ActionID, s.Kind)
		fmt.Fprintf(r.out, "  %s\n", s.Description)
		for _, c := range s.Commands {
			fmt.Fprintf(r.out, "  Would run: %s\n", r.style(mutedStyle, c))
		}
		fmt.Fprintln(r.out)
	}
}
