package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"discordbridge/internal/hostcmd"
	"discordbridge/internal/runlog"
)

// recentRunsShown is how many runs the Logs page lists.
const recentRunsShown = 5

// BridgeRunner streams a bridge invocation. *hostcmd.Runner implements it.
type BridgeRunner interface {
	Stream(ctx context.Context, req hostcmd.Request, onLine func(string)) (hostcmd.Result, error)
}

// TerminalResizer is implemented by runners whose child terminal can follow
// the Logs viewport. *hostcmd.Runner implements it.
type TerminalResizer interface {
	Resize(size hostcmd.Size) error
}

// StatsSource reads figures for the dashboard. *runlog.Store implements it.
type StatsSource interface {
	Stats(ctx context.Context) (runlog.Stats, error)
	RecentRuns(ctx context.Context, n int) ([]runlog.Run, error)
}

var (
	_ BridgeRunner    = (*hostcmd.Runner)(nil)
	_ TerminalResizer = (*hostcmd.Runner)(nil)
	_ StatsSource     = (*runlog.Store)(nil)
)

// loadStatsCmd reads stats and recent runs off the UI goroutine.
func loadStatsCmd(src StatsSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		st, err := src.Stats(ctx)
		if err != nil {
			return StatsLoadedMsg{Err: err}
		}
		runs, err := src.RecentRuns(ctx, recentRunsShown)
		return StatsLoadedMsg{Stats: st, Runs: runs, Err: err}
	}
}

// bridgeStream connects a running bridge process to the update loop.
// lines is closed after the process exits; done then holds the outcome.
type bridgeStream struct {
	lines chan string
	done  chan BridgeDoneMsg
}

// startBridge runs req in the background and returns the stream feeding it.
func startBridge(ctx context.Context, runner BridgeRunner, req hostcmd.Request) *bridgeStream {
	s := &bridgeStream{
		lines: make(chan string, 256),
		done:  make(chan BridgeDoneMsg, 1),
	}
	go func() {
		res, err := runner.Stream(ctx, req, func(line string) {
			select {
			case s.lines <- line:
			case <-ctx.Done():
			}
		})
		s.done <- BridgeDoneMsg{Result: res, Err: err}
		close(s.lines)
	}()
	return s
}

// waitForBridge delivers the next line, or the final BridgeDoneMsg.
func waitForBridge(s *bridgeStream) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-s.lines
		if !ok {
			return <-s.done
		}
		return BridgeLineMsg{Line: line}
	}
}
