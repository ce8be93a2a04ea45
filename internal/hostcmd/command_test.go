package hostcmd

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"testing"
)

func TestRequest_Args(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{"input only", Request{Input: "in.json"}, []string{"-i", "in.json"}},
		{"dry run", Request{Input: "in", DryRun: true}, []string{"--dry-run", "-i", "in"}},
		{"all flags", Request{Input: "in", DryRun: true, NoEmail: true, EnvPath: ".env"},
			[]string{"--dry-run", "--no-email", "-i", "in", "--config", ".env"}},
		{"no email with config", Request{Input: "dir", NoEmail: true, EnvPath: "/etc/bridge.env"},
			[]string{"--no-email", "-i", "dir", "--config", "/etc/bridge.env"}},
		{"json progress", Request{Input: "dir", JSONProgress: true},
			[]string{"--progress", "json", "-i", "dir"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.Args(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

// fakeBinary writes a shell script that echoes its args and exits with code.
func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "bridge-cli")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

func TestNewRunner_DefaultBinary(t *testing.T) {
	if got := NewRunner("").Binary; got != DefaultBinary {
		t.Errorf("Binary = %q, want %q", got, DefaultBinary)
	}
}

// pipeTerminal runs the command with a plain pipe so tests do not need a
// tty device. Resizes are recorded.
type pipeTerminal struct {
	*os.File
	mu    sync.Mutex
	sizes []Size
}

func (p *pipeTerminal) Resize(size Size) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sizes = append(p.sizes, size)
	return nil
}

func (p *pipeTerminal) resized() []Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Size(nil), p.sizes...)
}

// startPipe returns a StartFunc that stores the terminal it created in *term
// and the size it was started with in *started.
func startPipe(term **pipeTerminal, started *Size) StartFunc {
	return func(cmd *exec.Cmd, size Size) (Terminal, error) {
		pr, pw, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		cmd.Stdout = pw
		cmd.Stderr = pw
		if err := cmd.Start(); err != nil {
			pr.Close()
			pw.Close()
			return nil, err
		}
		pw.Close()
		*started = size
		*term = &pipeTerminal{File: pr}
		return *term, nil
	}
}

func TestRunner_Stream_DeliversLines(t *testing.T) {
	bin := fakeBinary(t, `printf 'Processing a.json\r\n'; echo "Processed a.json"; echo "oops" 1>&2; exit 1`)
	r := NewRunner(bin)
	var term *pipeTerminal
	var started Size
	r.Start = startPipe(&term, &started)

	var lines []string
	res, err := r.Stream(context.Background(), Request{Input: "a.json"}, func(l string) {
		lines = append(lines, l)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	want := []string{"Processing a.json", "Processed a.json", "oops"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
	if res.Status != "1" || res.OK() {
		t.Errorf("Status = %q, want 1", res.Status)
	}
	if !strings.Contains(res.Output, "Processed a.json\n") {
		t.Errorf("Output = %q", res.Output)
	}
	if started != (Size{Rows: 40, Cols: 120}) {
		t.Errorf("started with %+v, want the default size", started)
	}
}

func TestRunner_Stream_PassesArgs(t *testing.T) {
	bin := fakeBinary(t, `echo "args: $*"; exit 0`)
	r := NewRunner(bin)
	var term *pipeTerminal
	var started Size
	r.Start = startPipe(&term, &started)

	res, err := r.Stream(context.Background(), Request{Input: "in.json", DryRun: true, JSONProgress: true}, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if res.Output != "args: --dry-run --progress json -i in.json\n" {
		t.Errorf("Output = %q", res.Output)
	}
	if !res.OK() {
		t.Errorf("expected OK, got status %q", res.Status)
	}
}

func TestRunner_ResizeReachesRunningChild(t *testing.T) {
	bin := fakeBinary(t, `echo first; echo second`)
	r := NewRunner(bin)
	var term *pipeTerminal
	var started Size
	r.Start = startPipe(&term, &started)

	if err := r.Resize(Size{Rows: 20, Cols: 80}); err != nil {
		t.Fatalf("Resize before run: %v", err)
	}

	var resizeErr error
	_, err := r.Stream(context.Background(), Request{Input: "x"}, func(l string) {
		if l == "first" {
			resizeErr = r.Resize(Size{Rows: 30, Cols: 100})
		}
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if resizeErr != nil {
		t.Fatalf("Resize during run: %v", resizeErr)
	}
	if started != (Size{Rows: 20, Cols: 80}) {
		t.Errorf("started with %+v, want the size set before the run", started)
	}
	if got := term.resized(); !reflect.DeepEqual(got, []Size{{Rows: 30, Cols: 100}}) {
		t.Errorf("resizes = %+v", got)
	}

	// Once the child is gone only the stored size changes.
	if err := r.Resize(Size{Rows: 10, Cols: 40}); err != nil {
		t.Fatalf("Resize after run: %v", err)
	}
	if got := term.resized(); len(got) != 1 {
		t.Errorf("finished child was resized: %+v", got)
	}
}

func TestRunner_Stream_SpawnFailure(t *testing.T) {
	r := NewRunner(filepath.Join(t.TempDir(), "missing"))
	var term *pipeTerminal
	var started Size
	r.Start = startPipe(&term, &started)
	_, err := r.Stream(context.Background(), Request{Input: "x"}, nil)
	if err == nil || !strings.Contains(err.Error(), "failed to spawn") {
		t.Fatalf("expected spawn error, got %v", err)
	}
}
