package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stevehiehn/trinity/internal/logging"
	"github.com/stevehiehn/trinity/internal/metrics"
)

// Shell selects how an invocation is spawned and how its exit code is judged.
type Shell int

const (
	// ShellPackageManager runs the package manager with an argument vector.
	// A non-zero exit code is a failure.
	ShellPackageManager Shell = iota + 1
	// ShellScript runs one command string through the scripting shell.
	// Only a spawn failure is a failure; see Result.OK.
	ShellScript
)

func (s Shell) String() string {
	switch s {
	case ShellPackageManager:
		return "package_manager"
	case ShellScript:
		return "script"
	default:
		return "unknown"
	}
}

// ExitSpawnFailed is the exit code reported when the process never started.
const ExitSpawnFailed = -1

// Invocation is one external command to run.
type Invocation struct {
	Shell  Shell
	Args   []string // package-manager arguments, without the binary
	Script string   // scripting-shell command text
}

// Install builds a non-interactive package-manager install.
func Install(id string) Invocation {
	return Invocation{Shell: ShellPackageManager, Args: []string{
		"install", "-e", "--id", id,
		"--accept-source-agreements", "--accept-package-agreements", "--silent",
	}}
}

// Uninstall builds a silent package-manager uninstall.
func Uninstall(id string) Invocation {
	return Invocation{Shell: ShellPackageManager, Args: []string{"uninstall", "--id", id, "--silent"}}
}

// Script builds a scripting-shell invocation.
func Script(text string) Invocation {
	return Invocation{Shell: ShellScript, Script: text}
}

// Result holds the outcome of one invocation.
type Result struct {
	Shell       Shell
	CommandLine string
	ExitCode    int
	Stdout      string
	Stderr      string
	SpawnErr    error
}

// OK classifies the result. Package-manager runs need exit code 0. Script
// runs succeed whenever the process ran; a non-zero exit only yields a
// warning line in the audit log.
func (r Result) OK() bool {
	if r.SpawnErr != nil {
		return false
	}
	if r.Shell == ShellScript {
		return true
	}
	return r.ExitCode == 0
}

// Executor runs external commands. Run never fails with an error: spawn
// problems and exit codes are encoded in the Result.
type Executor interface {
	Run(ctx context.Context, inv Invocation) Result
	Start(ctx context.Context, path string) error
}

// BreakerSettings guards the package manager against repeated spawn
// failures. A zero ConsecutiveFailures disables the breaker.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// Options configures a Runner.
type Options struct {
	PackageManager string // default "winget"
	Shell          string // default "powershell"
	ShellFlag      string // default "-Command"
	Logger         zerolog.Logger
	Metrics        *metrics.Recorder
	Breaker        BreakerSettings
}

// Runner is the os/exec backed Executor. Every invocation is written to the
// audit logger before Run returns.
type Runner struct {
	packageManager string
	shell          string
	shellFlag      string
	logger         zerolog.Logger
	metrics        *metrics.Recorder
	breaker        *gobreaker.CircuitBreaker
}

// New creates a Runner.
func New(opts Options) *Runner {
	r := &Runner{
		packageManager: opts.PackageManager,
		shell:          opts.Shell,
		shellFlag:      opts.ShellFlag,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
	}
	if r.packageManager == "" {
		r.packageManager = "winget"
	}
	if r.shell == "" {
		r.shell = "powershell"
	}
	if r.shellFlag == "" {
		r.shellFlag = "-Command"
	}
	if opts.Breaker.ConsecutiveFailures > 0 {
		r.breaker = newBreaker(r.packageManager, opts.Breaker, r.logger, r.metrics)
	}
	return r
}

func newBreaker(name string, s BreakerSettings, logger zerolog.Logger, rec *metrics.Recorder) *gobreaker.CircuitBreaker {
	timeout := s.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Package manager breaker changed state")
			rec.SetBreakerState(name, int(to))
		},
	})
}

func (r *Runner) argv(inv Invocation) (string, []string) {
	if inv.Shell == ShellScript {
		return r.shell, []string{r.shellFlag, inv.Script}
	}
	return r.packageManager, inv.Args
}

// CommandLine renders inv exactly as Run would execute it.
func (r *Runner) CommandLine(inv Invocation) string {
	name, args := r.argv(inv)
	return commandLine(name, args)
}

// Run executes inv and waits for it to exit.
func (r *Runner) Run(ctx context.Context, inv Invocation) Result {
	name, args := r.argv(inv)
	res := Result{Shell: inv.Shell, CommandLine: commandLine(name, args)}
	log := logging.Enrich(ctx, r.logger)

	log.Info().Str("shell", inv.Shell.String()).Str("command", res.CommandLine).Msg("Executing command")

	if inv.Shell == ShellPackageManager && r.breaker != nil {
		_, err := r.breaker.Execute(func() (interface{}, error) {
			r.exec(ctx, name, args, &res)
			return nil, res.SpawnErr
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			res.ExitCode = ExitSpawnFailed
			res.SpawnErr = err
		}
	} else {
		r.exec(ctx, name, args, &res)
	}

	r.audit(log, res)
	r.metrics.ObserveCommand(inv.Shell.String(), res.OK())
	return res
}

func (r *Runner) exec(ctx context.Context, name string, args []string, res *Result) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = ExitSpawnFailed
			res.SpawnErr = err
			return
		}
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
}

func (r *Runner) audit(log zerolog.Logger, res Result) {
	if res.SpawnErr != nil {
		log.Error().Err(res.SpawnErr).Str("command", res.CommandLine).Msg("Command could not be started")
		return
	}
	log.Info().Int("exit_code", res.ExitCode).Str("stdout", res.Stdout).Msg("Command stdout")
	switch {
	case res.ExitCode == 0:
		log.Debug().Str("stderr", res.Stderr).Msg("Command stderr")
	case res.Shell == ShellScript:
		log.Warn().Int("exit_code", res.ExitCode).Str("stderr", res.Stderr).
			Msg("Script command likely succeeded with warnings, check stderr for details")
	default:
		log.Error().Int("exit_code", res.ExitCode).Str("stderr", res.Stderr).Msg("Command failed")
	}
}

// Start launches the executable at path without waiting for it. The process
// is detached and outlives ctx, which only scopes the audit lines.
func (r *Runner) Start(ctx context.Context, path string) error {
	log := logging.Enrich(ctx, r.logger)
	cmd := exec.Command(path)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to start executable")
		return err
	}
	log.Info().Str("path", path).Int("pid", cmd.Process.Pid).Msg("Started executable")
	go func() { _ = cmd.Wait() }()
	return nil
}

func commandLine(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
