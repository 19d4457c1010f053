package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stevehiehn/trinity/internal/engine"
	trerrors "github.com/stevehiehn/trinity/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testApps = `{"Apps": {"Utilities": [
  {"name": "7zip", "display_name": "7-Zip", "winget_id": "7zip.7zip"},
  {"name": "everything", "display_name": "Everything", "winget_id": "voidtools.Everything"}
]}}`

const testTweaks = `{
  "Tweaks": [
    {"Name": "Hide Desktop Icons", "Category": "Appearance", "Command": "echo hidden"},
    {"Name": "Greet", "Command": "echo {{inputs.greeting}}"}
  ],
  "Helpers": [
    {"Name": "TranslucentTB", "Candidates": ["TranslucentTB.exe"], "UninstallIDs": ["TranslucentTB", "CharlesMilette.TranslucentTB"], "InstallID": "TranslucentTB"}
  ],
  "Presets": [
    {"Name": "Sleek Minimal", "Items": [
      {"Helper": "TranslucentTB"},
      {"Tweak": "Hide Desktop Icons"},
      {"Name": "Restart Explorer", "Command": "echo restarted"}
    ]}
  ]
}`

type env struct {
	dir     string
	apps    string
	tweaks  string
	logFile string
}

// newEnv writes catalogs to a temp dir and points the runner at sh.
func newEnv(t *testing.T, packageManager string) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{
		dir:     dir,
		apps:    filepath.Join(dir, "apps.json"),
		tweaks:  filepath.Join(dir, "tweaks.json"),
		logFile: filepath.Join(dir, "trinity.log"),
	}
	require.NoError(t, os.WriteFile(e.apps, []byte(testApps), 0o644))
	require.NoError(t, os.WriteFile(e.tweaks, []byte(testTweaks), 0o644))

	t.Setenv("TRINITY_RUNNER__SHELL", "sh")
	t.Setenv("TRINITY_RUNNER__SHELL_FLAG", "-c")
	t.Setenv("TRINITY_RUNNER__PACKAGE_MANAGER", packageManager)
	t.Setenv("TRINITY_LOG__FILE", e.logFile)
	t.Setenv("TRINITY_STATE__DIR", filepath.Join(dir, "state"))
	t.Setenv("TRINITY_BREAKER__CONSECUTIVE_FAILURES", "0")
	t.Setenv("NO_COLOR", "1")
	return e
}

// resetFlags restores every flag to its default between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (e *env) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(append([]string{"--apps", e.apps, "--tweaks", e.tweaks}, args...))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.ExecuteContext(context.Background())
	_ = teardown()
	return out.String(), errOut.String(), err
}

func TestInstallCommand(t *testing.T) {
	e := newEnv(t, "true")
	out, _, err := e.run(t, "", "install", "--yes", "7zip", "everything")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 7zip")
	assert.Contains(t, out, "✓ everything")
	assert.Contains(t, out, "2 succeeded, 0 failed")

	logData, err := os.ReadFile(e.logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logData), "install -e --id 7zip.7zip")
	assert.Contains(t, string(logData), `"action_id":"everything"`)
}

func TestInstallFailureExitsWithError(t *testing.T) {
	e := newEnv(t, "false")
	out, _, err := e.run(t, "", "install", "-y", "7zip")
	require.Error(t, err)
	assert.Equal(t, trerrors.NonZeroExit, trerrors.TypeOf(err))
	assert.Contains(t, hintOf(err), e.logFile)
	assert.Contains(t, out, "✗ 7zip")
	assert.Contains(t, out, "0 succeeded, 1 failed")
	assert.Contains(t, out, "Failed: 7zip")
}

func TestInstallNothingSelected(t *testing.T) {
	e := newEnv(t, "true")
	_, _, err := e.run(t, "", "install", "-y")
	assert.ErrorIs(t, err, trerrors.ErrNothingSelected)
}

func TestDeclinedConfirmationRunsNothing(t *testing.T) {
	e := newEnv(t, "true")
	out, errOut, err := e.run(t, "n\n", "tweak", "Hide Desktop Icons")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Apply 1 action(s)? [y/N]")
	assert.Contains(t, errOut, "Aborted.")
	assert.Empty(t, out)
}

func TestAcceptedConfirmationRuns(t *testing.T) {
	e := newEnv(t, "true")
	out, _, err := e.run(t, "yes\n", "tweak", "Hide Desktop Icons")
	require.NoError(t, err)
	assert.Contains(t, out, "1 succeeded, 0 failed")
}

func TestTweakWithInput(t *testing.T) {
	e := newEnv(t, "true")
	out, _, err := e.run(t, "", "--json", "-y", "--input", "greeting=hello", "tweak", "Greet")
	require.NoError(t, err)

	var rep engine.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, []string{"Greet"}, rep.Succeeded)
	require.Len(t, rep.Actions[0].Commands, 1)
	assert.Equal(t, "sh -c echo hello", rep.Actions[0].Commands[0].Command)
}

func TestTweakMissingInput(t *testing.T) {
	e := newEnv(t, "true")
	_, _, err := e.run(t, "", "-y", "tweak", "Greet")
	require.Error(t, err)
	assert.Equal(t, trerrors.ValidationError, trerrors.TypeOf(err))
	assert.Equal(t, "Provide it with --input NAME=VALUE", hintOf(err))
}

func TestUnknownTweak(t *testing.T) {
	e := newEnv(t, "true")
	_, _, err := e.run(t, "", "-y", "tweak", "Nope")
	require.Error(t, err)
	assert.Equal(t, trerrors.CatalogError, trerrors.TypeOf(err))
}

func TestDryRunPreset(t *testing.T) {
	e := newEnv(t, "true")
	out, _, err := e.run(t, "", "dry-run", "--preset", "Sleek Minimal")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry-run: 3 action(s)")
	assert.Contains(t, out, "Action: TranslucentTB [start_helper]")
	assert.Contains(t, out, "Would run: on failure: true uninstall")
	assert.Contains(t, out, "Would run: sh -c echo hidden")
	assert.Contains(t, out, "Would run: sh -c echo restarted")

	logData, err := os.ReadFile(e.logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(logData), "Executing command")
}

func TestDryRunJSON(t *testing.T) {
	e := newEnv(t, "true")
	out, _, err := e.run(t, "", "--json", "dry-run", "--app", "7zip", "--tweak", "Hide Desktop Icons")
	require.NoError(t, err)

	var got struct {
		Steps []engine.Step `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Steps, 2)
	assert.Equal(t, "7zip", got.Steps[0].ActionID)
	assert.Equal(t, "Hide Desktop Icons", got.Steps[1].ActionID)
}

func TestDryRunNothingSelected(t *testing.T) {
	e := newEnv(t, "true")
	_, _, err := e.run(t, "", "dry-run")
	assert.ErrorIs(t, err, trerrors.ErrNothingSelected)
}

func TestValidateCommand(t *testing.T) {
	e := newEnv(t, "true")
	out, _, err := e.run(t, "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog is valid: 2 apps, 2 tweaks, 1 helpers, 1 presets.")
}

func TestValidateInvalidCatalog(t *testing.T) {
	e := newEnv(t, "true")
	require.NoError(t, os.WriteFile(e.tweaks, []byte(`{"Tweaks": [{"Name": "x"}, {"Name": "x"}]}`), 0o644))

	out, _, err := e.run(t, "", "--json", "validate")
	require.Error(t, err)
	assert.Equal(t, trerrors.CatalogError, trerrors.TypeOf(err))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, false, got["valid"])
}

func TestCatalogCommand(t *testing.T) {
	e := newEnv(t, "true")
	out, _, err := e.run(t, "", "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Utilities")
	assert.Contains(t, out, "7-Zip")
	assert.Contains(t, out, "Hide Desktop Icons")
	assert.Contains(t, out, "reinstall via TranslucentTB")
	assert.Contains(t, out, "Sleek Minimal (3 items)")
}

func TestConfigCommand(t *testing.T) {
	e := newEnv(t, "true")
	out, _, err := e.run(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "package_manager")
	assert.Contains(t, out, e.apps)
}

func TestMetricsTextfile(t *testing.T) {
	e := newEnv(t, "true")
	path := filepath.Join(e.dir, "trinity.prom")
	t.Setenv("TRINITY_METRICS__TEXTFILE", path)

	_, _, err := e.run(t, "", "install", "-y", "7zip")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "trinity_actions_total")
}
