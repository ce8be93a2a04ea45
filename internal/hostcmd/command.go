// Package hostcmd runs the bridge CLI as a child process on behalf of the dashboard.
package hostcmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "bridge-cli"

// Request describes one bridge invocation.
type Request struct {
	Input        string
	DryRun       bool
	NoEmail      bool
	JSONProgress bool   // ask for progress events as JSON lines
	EnvPath      string // optional --config value
}

// Args returns the CLI arguments for r, flags first.
func (r Request) Args() []string {
	var args []string
	if r.DryRun {
		args = append(args, "--dry-run")
	}
	if r.NoEmail {
		args = append(args, "--no-email")
	}
	if r.JSONProgress {
		args = append(args, "--progress", "json")
	}
	args = append(args, "-i", r.Input)
	if r.EnvPath != "" {
		args = append(args, "--config", r.EnvPath)
	}
	return args
}

// Result is the outcome of a run. Output holds every line the child wrote.
// Status is the exit code as a string, empty when the process was killed by
// a signal.
type Result struct {
	Output string
	Status string
}

// OK reports whether the process exited with status 0.
func (r Result) OK() bool { return r.Status == "0" }

// Runner spawns the bridge binary. It runs one child at a time; Resize
// reaches the child while it runs.
type Runner struct {
	Binary string
	Start  StartFunc

	mu     sync.Mutex
	size   Size
	active Terminal
}

// NewRunner returns a Runner for binary (DefaultBinary when empty) that
// starts the child in a pseudo terminal.
func NewRunner(binary string) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Runner{Binary: binary, Start: StartPTY, size: Size{Rows: 40, Cols: 120}}
}

// Resize sets the terminal size for the running child and later runs.
func (r *Runner) Resize(size Size) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.size = size
	if r.active == nil {
		return nil
	}
	return r.active.Resize(size)
}

// Stream executes the request and calls onLine for each output line as it
// arrives. Stdout and stderr are interleaved. A non-zero exit is reported in
// Result.Status; err is set only when the child could not be run.
func (r *Runner) Stream(ctx context.Context, req Request, onLine func(string)) (Result, error) {
	cmd := exec.CommandContext(ctx, r.Binary, req.Args()...)
	start := r.Start
	if start == nil {
		start = StartPTY
	}

	r.mu.Lock()
	term, err := start(cmd, r.size)
	if err != nil {
		r.mu.Unlock()
		return Result{}, fmt.Errorf("failed to spawn %s: %w", r.Binary, err)
	}
	r.active = term
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.active = nil
		r.mu.Unlock()
		term.Close()
	}()

	var out strings.Builder
	sc := bufio.NewScanner(term)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		out.WriteString(line)
		out.WriteByte('\n')
		if onLine != nil {
			onLine(line)
		}
	}
	// Reading a pty whose child has exited fails with EIO on Linux; treat it as EOF.
	if scanErr := sc.Err(); scanErr != nil && !errors.Is(scanErr, syscall.EIO) {
		_ = cmd.Wait()
		return Result{Output: out.String()}, fmt.Errorf("read output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{Output: out.String()}, fmt.Errorf("wait %s: %w", r.Binary, err)
		}
	}
	return Result{Output: out.String(), Status: exitStatus(cmd.ProcessState)}, nil
}

func exitStatus(ps *os.ProcessState) string {
	code := ps.ExitCode()
	if code < 0 {
		return ""
	}
	return strconv.Itoa(code)
}
