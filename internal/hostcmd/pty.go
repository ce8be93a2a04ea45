package hostcmd

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// Size is a terminal size in character cells.
type Size struct {
	Rows uint16
	Cols uint16
}

func (s Size) winsize() *pty.Winsize {
	return &pty.Winsize{Rows: s.Rows, Cols: s.Cols}
}

// Terminal is the controlling side of a running child's terminal.
type Terminal interface {
	Read(p []byte) (int, error)
	Close() error
	Resize(size Size) error
}

// StartFunc starts cmd attached to a new Terminal of the given size.
type StartFunc func(cmd *exec.Cmd, size Size) (Terminal, error)

// StartPTY runs cmd inside a pseudo terminal so the bridge keeps its
// line-buffered, colored output.
func StartPTY(cmd *exec.Cmd, size Size) (Terminal, error) {
	f, err := pty.StartWithSize(cmd, size.winsize())
	if err != nil {
		return nil, err
	}
	return ptyTerminal{f}, nil
}

type ptyTerminal struct {
	*os.File
}

func (t ptyTerminal) Resize(size Size) error {
	return pty.Setsize(t.File, size.winsize())
}
