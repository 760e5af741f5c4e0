// Package omr drives an external optical music recognition engine as a
// batch subprocess and classifies how each run ended.
package omr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/okian/chordscan/internal/adapters/workspace"
	"github.com/okian/chordscan/internal/domain/model"
	"github.com/okian/chordscan/pkg/logger"
	"github.com/okian/chordscan/pkg/metrics"
)

const (
	defaultTimeout   = 180 * time.Second
	defaultDiagLimit = 4000
	defaultJava      = "java"
	engineMainClass  = "Audiveris"
	// fallbackSlack tolerates coarse filesystem timestamps when deciding
	// whether a fallback artifact came from this run.
	fallbackSlack = 2 * time.Second
)

// ArtifactExts are the file suffixes the engine exports.
var ArtifactExts = []string{".mxl", ".musicxml", ".xml"}

var notFoundPattern = regexp.MustCompile(`(?i)not recognized|no such file|cannot find`)

// Status classifies an engine run.
type Status int

// Engine run statuses.
const (
	StatusSuccess Status = iota
	StatusEngineNotFound
	StatusEngineMisconfigured
	StatusEngineFailed
	StatusTimeout
	StatusNoArtifact
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusEngineNotFound:
		return "engine_not_found"
	case StatusEngineMisconfigured:
		return "engine_misconfigured"
	case StatusEngineFailed:
		return "engine_failed"
	case StatusTimeout:
		return "timeout"
	case StatusNoArtifact:
		return "no_artifact"
	default:
		return "unknown"
	}
}

// Outcome is the result of one recognition run. ArtifactPath is set only
// for StatusSuccess.
type Outcome struct {
	Status       Status
	ExitCode     int
	Diagnostics  string
	ArtifactPath string
	FromFallback bool
	Duration     time.Duration
	Cause        error
}

// NoArtifactMessage is reported when the engine exported nothing usable.
const NoArtifactMessage = "Could not extract notation (not a valid score, or OMR didn't detect staves/notes). Try ~300-400 dpi."

// Err converts a failed outcome into a classified error. It returns nil for success.
func (o Outcome) Err() error {
	var e *model.Error
	switch o.Status {
	case StatusSuccess:
		return nil
	case StatusEngineNotFound:
		e = model.WrapKind(model.KindEngineNotFound, "recognition engine not found; check engine_path", o.Cause)
	case StatusEngineMisconfigured:
		e = model.WrapKind(model.KindEngineMisconfigured, "recognition engine is not configured; set engine_path", o.Cause)
	case StatusEngineFailed:
		e = model.WrapKind(model.KindEngineFailed, fmt.Sprintf("recognition engine failed (exit %d)", o.ExitCode), o.Cause)
	case StatusTimeout:
		e = model.WrapKind(model.KindTimeout, "recognition engine timed out", o.Cause)
	case StatusNoArtifact:
		e = model.NewKind(model.KindNoArtifact, NoArtifactMessage)
	default:
		e = model.WrapKind(model.KindUnknown, "recognition failed", o.Cause)
	}
	e.ExitCode = o.ExitCode
	e.Diagnostics = o.Diagnostics
	return e
}

// Adapter invokes the engine. It is safe for concurrent use; each call
// works only inside the output directory it is given.
type Adapter struct {
	enginePath   string
	javaPath     string
	timeout      time.Duration
	fallbackDirs []string
	diagLimit    int
	runner       Runner
	logger       logger.Logger
}

// New creates an Adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		javaPath:  defaultJava,
		timeout:   defaultTimeout,
		diagLimit: defaultDiagLimit,
		runner:    NewExecRunner(),
		logger:    logger.Get().Named("omr"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Timeout returns the default per-run budget.
func (a *Adapter) Timeout() time.Duration { return a.timeout }

// Command builds the invocation for input and outputDir. A .jar engine runs
// under the Java runtime with its lib directory on the classpath; a .bat or
// .cmd engine runs through cmd.exe.
func (a *Adapter) Command(input, outputDir string) (Command, error) {
	engine := strings.TrimSpace(a.enginePath)
	if engine == "" {
		return Command{}, ErrNoEngine
	}
	batch := []string{"-batch", "-export", "-output", outputDir, input}

	switch strings.ToLower(filepath.Ext(engine)) {
	case ".jar":
		if strings.TrimSpace(a.javaPath) == "" {
			return Command{}, ErrNoRuntime
		}
		if _, err := os.Stat(engine); err != nil {
			return Command{}, fmt.Errorf("%w: %w", ErrNoEngine, err)
		}
		cp := filepath.Join(filepath.Dir(engine), "lib", "*") + string(os.PathListSeparator) + engine
		args := append([]string{"-cp", cp, engineMainClass}, batch...)
		return Command{Name: a.javaPath, Args: args}, nil
	case ".bat", ".cmd":
		return Command{Name: "cmd", Args: append([]string{"/C", engine}, batch...)}, nil
	default:
		return Command{Name: engine, Args: batch}, nil
	}
}

// Recognize runs the engine on inputPath, exporting into outputDir, and
// locates the produced artifact. A zero timeout uses the adapter default.
// The run is killed when the timeout expires or ctx is cancelled.
func (a *Adapter) Recognize(ctx context.Context, inputPath, outputDir string, timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = a.timeout
	}
	started := time.Now()
	out := a.recognize(ctx, inputPath, outputDir, timeout, started)
	out.Duration = time.Since(started)

	metrics.RecordEngineRun(out.Status.String(), float64(out.Duration.Milliseconds()))
	fields := []logger.Field{
		logger.String("status", out.Status.String()),
		logger.String("input", inputPath),
		logger.Duration("duration", out.Duration),
	}
	if out.Status == StatusSuccess {
		a.logger.Info(ctx, "recognition finished", append(fields, logger.String("artifact", out.ArtifactPath))...)
	} else {
		metrics.RecordErrorByComponent("omr", out.Status.String())
		a.logger.Warn(ctx, "recognition failed", append(fields, logger.Int("exit_code", out.ExitCode))...)
	}
	return out
}

func (a *Adapter) recognize(ctx context.Context, input, outputDir string, timeout time.Duration, started time.Time) Outcome {
	cmd, err := a.Command(input, outputDir)
	if err != nil {
		return Outcome{Status: StatusEngineMisconfigured, Cause: err}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a.logger.Debug(ctx, "starting recognition engine",
		logger.String("command", cmd.Name),
		logger.Any("args", cmd.Args),
		logger.Duration("timeout", timeout),
	)
	res, runErr := a.runner.Run(runCtx, cmd)
	diag := a.diagnostics(res)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		metrics.RecordEngineTimeout()
		return Outcome{Status: StatusTimeout, ExitCode: res.ExitCode, Diagnostics: diag, Cause: runCtx.Err()}
	}
	if runErr == nil && res.ExitCode != 0 {
		runErr = fmt.Errorf("%w: exit status %d", ErrEngineExit, res.ExitCode)
	}
	if runErr != nil {
		if ctx.Err() != nil {
			return Outcome{Status: StatusEngineFailed, ExitCode: res.ExitCode, Diagnostics: diag, Cause: ctx.Err()}
		}
		if isStartFailure(runErr) {
			return Outcome{Status: StatusEngineNotFound, ExitCode: res.ExitCode, Diagnostics: diag, Cause: fmt.Errorf("%w: %w", ErrEngineStart, runErr)}
		}
		if notFoundPattern.MatchString(res.Stderr) || notFoundPattern.MatchString(res.Stdout) {
			return Outcome{Status: StatusEngineNotFound, ExitCode: res.ExitCode, Diagnostics: diag, Cause: runErr}
		}
		return Outcome{Status: StatusEngineFailed, ExitCode: res.ExitCode, Diagnostics: diag, Cause: runErr}
	}

	return a.locate(ctx, outputDir, started, diag)
}

// locate finds the newest artifact in outputDir, then in the fallback
// workspaces. Fallback artifacts older than this run are ignored.
func (a *Adapter) locate(ctx context.Context, outputDir string, started time.Time, diag string) Outcome {
	found, err := workspace.FindArtifacts(outputDir, ArtifactExts)
	if err != nil {
		a.logger.Warn(ctx, "artifact scan failed", logger.String("dir", outputDir), logger.Error(err))
	}
	if path, ok := workspace.MostRecent(found); ok {
		return Outcome{Status: StatusSuccess, ArtifactPath: path}
	}

	var fresh []string
	for _, dir := range a.fallbackDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		paths, err := workspace.FindArtifacts(dir, ArtifactExts)
		if err != nil {
			a.logger.Debug(ctx, "fallback scan failed", logger.String("dir", dir), logger.Error(err))
			continue
		}
		for _, p := range paths {
			if info, err := os.Stat(p); err == nil && !info.ModTime().Before(started.Add(-fallbackSlack)) {
				fresh = append(fresh, p)
			}
		}
	}
	if path, ok := workspace.MostRecent(fresh); ok {
		a.logger.Info(ctx, "artifact found in engine workspace", logger.String("artifact", path))
		return Outcome{Status: StatusSuccess, ArtifactPath: path, FromFallback: true}
	}
	return Outcome{Status: StatusNoArtifact, Diagnostics: diag}
}

// diagnostics prefers stderr, falling back to stdout, truncated to the limit.
func (a *Adapter) diagnostics(res Result) string {
	text := res.Stderr
	if strings.TrimSpace(text) == "" {
		text = res.Stdout
	}
	return truncate(text, a.diagLimit)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func isStartFailure(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false
	}
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}
