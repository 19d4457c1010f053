package fallback

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stevehiehn/trinity/internal/action"
	"github.com/stevehiehn/trinity/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockExecutor implements runner.Executor for testing
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Run(ctx context.Context, inv runner.Invocation) runner.Result {
	args := m.Called(inv)
	return args.Get(0).(runner.Result)
}

func (m *MockExecutor) Start(ctx context.Context, path string) error {
	args := m.Called(path)
	return args.Error(0)
}

var (
	pmOK   = runner.Result{Shell: runner.ShellPackageManager, ExitCode: 0}
	pmFail = runner.Result{Shell: runner.ShellPackageManager, ExitCode: 1}
)

func translucentTB() action.Helper {
	return action.Helper{
		Name:         "TranslucentTB",
		Candidates:   []string{`%ProgramFiles%\TranslucentTB\TranslucentTB.exe`, "TranslucentTB.exe"},
		UninstallIDs: []string{"TranslucentTB", "CharlesMilette.TranslucentTB"},
		InstallID:    "TranslucentTB",
	}
}

// locateSeq answers successive Locate calls from found.
func locateSeq(found ...bool) (func([]string) (string, bool), *int) {
	calls := 0
	return func([]string) (string, bool) {
		i := calls
		calls++
		if i < len(found) && found[i] {
			return "/opt/TranslucentTB.exe", true
		}
		return "", false
	}, &calls
}

func newEngine(m *MockExecutor, locate func([]string) (string, bool)) *Engine {
	return New(Options{Executor: m, Locate: locate, Logger: zerolog.Nop()})
}

func TestDirectStartNeverTouchesPackageManager(t *testing.T) {
	m := &MockExecutor{}
	m.On("Start", "/opt/TranslucentTB.exe").Return(nil)
	locate, calls := locateSeq(true)

	out := newEngine(m, locate).Run(context.Background(), translucentTB())

	assert.True(t, out.Succeeded)
	assert.Equal(t, LabelDirectStart, out.Label)
	assert.Equal(t, RungStart, out.Rung)
	assert.Equal(t, 1, *calls)
	m.AssertNumberOfCalls(t, "Run", 0)
	m.AssertExpectations(t)
}

func TestUninstallFailureStopsBeforeReinstall(t *testing.T) {
	m := &MockExecutor{}
	m.On("Run", runner.Uninstall("TranslucentTB")).Return(pmFail)
	m.On("Run", runner.Uninstall("CharlesMilette.TranslucentTB")).Return(pmFail)
	locate, calls := locateSeq(false)

	out := newEngine(m, locate).Run(context.Background(), translucentTB())

	assert.False(t, out.Succeeded)
	assert.Equal(t, LabelUninstallFailed, out.Label)
	assert.Equal(t, RungUninstall, out.Rung)
	assert.Equal(t, 1, *calls)
	m.AssertNumberOfCalls(t, "Run", 2)
	m.AssertNotCalled(t, "Run", runner.Install("TranslucentTB"))
	m.AssertNotCalled(t, "Start", mock.Anything)
}

func TestUninstallStopsAtFirstSuccessfulAlias(t *testing.T) {
	m := &MockExecutor{}
	m.On("Run", runner.Uninstall("TranslucentTB")).Return(pmOK)
	m.On("Run", runner.Install("TranslucentTB")).Return(pmOK)
	m.On("Start", "/opt/TranslucentTB.exe").Return(nil)
	locate, _ := locateSeq(false, true)

	out := newEngine(m, locate).Run(context.Background(), translucentTB())

	assert.True(t, out.Succeeded)
	assert.Equal(t, LabelFallbackStart, out.Label)
	m.AssertNotCalled(t, "Run", runner.Uninstall("CharlesMilette.TranslucentTB"))
	assert.Len(t, out.Results, 2)
}

func TestFallbackStartAfterSecondAlias(t *testing.T) {
	m := &MockExecutor{}
	m.On("Run", runner.Uninstall("TranslucentTB")).Return(pmFail)
	m.On("Run", runner.Uninstall("CharlesMilette.TranslucentTB")).Return(pmOK)
	m.On("Run", runner.Install("TranslucentTB")).Return(pmOK)
	m.On("Start", "/opt/TranslucentTB.exe").Return(nil)
	locate, calls := locateSeq(false, true)

	out := newEngine(m, locate).Run(context.Background(), translucentTB())

	assert.True(t, out.Succeeded)
	assert.Equal(t, LabelFallbackStart, out.Label)
	assert.Equal(t, RungRetryStart, out.Rung)
	assert.Equal(t, 2, *calls)
	assert.Len(t, out.Results, 3)
	m.AssertExpectations(t)
}

func TestReinstallFailure(t *testing.T) {
	m := &MockExecutor{}
	m.On("Run", runner.Uninstall("TranslucentTB")).Return(pmOK)
	m.On("Run", runner.Install("TranslucentTB")).Return(pmFail)
	locate, calls := locateSeq(false, true)

	out := newEngine(m, locate).Run(context.Background(), translucentTB())

	assert.False(t, out.Succeeded)
	assert.Equal(t, LabelReinstallFailed, out.Label)
	assert.Equal(t, 1, *calls, "retry start must not run")
	m.AssertNotCalled(t, "Start", mock.Anything)
}

func TestStartFailedAfterReinstall(t *testing.T) {
	m := &MockExecutor{}
	m.On("Run", runner.Uninstall("TranslucentTB")).Return(pmOK)
	m.On("Run", runner.Install("TranslucentTB")).Return(pmOK)
	locate, calls := locateSeq(false, false)

	out := newEngine(m, locate).Run(context.Background(), translucentTB())

	assert.False(t, out.Succeeded)
	assert.Equal(t, LabelStartFailedAfterReinstall, out.Label)
	assert.Equal(t, 2, *calls)
}

func TestSpawnErrorOnDirectStartFallsThrough(t *testing.T) {
	m := &MockExecutor{}
	m.On("Start", "/opt/TranslucentTB.exe").Return(errors.New("access denied")).Once()
	m.On("Run", runner.Uninstall("TranslucentTB")).Return(pmOK)
	m.On("Run", runner.Install("TranslucentTB")).Return(pmOK)
	m.On("Start", "/opt/TranslucentTB.exe").Return(nil).Once()
	locate, _ := locateSeq(true, true)

	out := newEngine(m, locate).Run(context.Background(), translucentTB())

	assert.True(t, out.Succeeded)
	assert.Equal(t, LabelFallbackStart, out.Label)
	m.AssertNumberOfCalls(t, "Start", 2)
}

func TestUninstallWithoutAliasesUsesInstallID(t *testing.T) {
	m := &MockExecutor{}
	m.On("Run", runner.Uninstall("Helper.App")).Return(pmFail)
	locate, _ := locateSeq(false)

	h := action.Helper{Name: "helper", Candidates: []string{"helper.exe"}, InstallID: "Helper.App"}
	out := newEngine(m, locate).Run(context.Background(), h)

	assert.Equal(t, LabelUninstallFailed, out.Label)
	m.AssertExpectations(t)
}

func TestRungString(t *testing.T) {
	assert.Equal(t, "start", RungStart.String())
	assert.Equal(t, "retry_start", RungRetryStart.String())
	assert.Equal(t, "unknown", Rung(0).String())
}
