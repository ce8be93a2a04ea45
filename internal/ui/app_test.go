package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"discordbridge/internal/config"
	"discordbridge/internal/hostcmd"
	"discordbridge/internal/runlog"
)

type fakeRunner struct {
	lines  []string
	result hostcmd.Result
	err    error
	calls  int
	req    hostcmd.Request
}

func (f *fakeRunner) Stream(ctx context.Context, req hostcmd.Request, onLine func(string)) (hostcmd.Result, error) {
	f.calls++
	f.req = req
	for _, l := range f.lines {
		onLine(l)
	}
	return f.result, f.err
}

type fakeStats struct {
	stats runlog.Stats
	runs  []runlog.Run
	err   error
}

func (f *fakeStats) Stats(ctx context.Context) (runlog.Stats, error) { return f.stats, f.err }

func (f *fakeStats) RecentRuns(ctx context.Context, n int) ([]runlog.Run, error) {
	return f.runs, nil
}

// drainBridge feeds stream messages into the model until the run completes.
func drainBridge(t *testing.T, m *AppModel, tm tea.Model) tea.Cmd {
	t.Helper()
	for i := 0; i < 100; i++ {
		if m.stream == nil {
			t.Fatal("no bridge stream")
		}
		msg := waitForBridge(m.stream)()
		_, cmd := tm.Update(msg)
		if _, done := msg.(BridgeDoneMsg); done {
			return cmd
		}
	}
	t.Fatal("bridge did not finish")
	return nil
}

func TestAppModel_StartsOnDashboard(t *testing.T) {
	m := NewAppModel(Options{})
	if m.Mode != ModeIdle {
		t.Errorf("Mode = %v, want Idle", m.Mode)
	}
	if m.Shell.Active() != SectionDashboard {
		t.Errorf("Active() = %v, want Dashboard", m.Shell.Active())
	}
	if !strings.Contains(m.AsTeaModel().View(), "▸ Dashboard") {
		t.Error("initial view should highlight Dashboard")
	}
}

func TestAppModel_QuitKeys(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		tm := NewAppModel(Options{}).AsTeaModel()
		_, cmd := tm.Update(keyMsg(k))
		if cmd == nil {
			t.Fatalf("%s: expected quit command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected tea.QuitMsg", k)
		}
	}
}

func TestAppModel_LeaderGoTo(t *testing.T) {
	tests := []struct {
		key  string
		want Section
	}{
		{"s", SectionSettings},
		{"l", SectionLogs},
		{"d", SectionDashboard},
	}
	for _, tt := range tests {
		m := NewAppModel(Options{})
		m.Shell.SelectSection(tt.want.Next())
		tm := m.AsTeaModel()
		tm.Update(keyMsg(" "))
		tm.Update(keyMsg("g"))
		_, cmd := tm.Update(keyMsg(tt.key))
		if cmd == nil {
			t.Fatalf("SPC g %s: expected command", tt.key)
		}
		tm.Update(cmd())
		if m.Shell.Active() != tt.want {
			t.Errorf("SPC g %s: Active() = %v, want %v", tt.key, m.Shell.Active(), tt.want)
		}
	}
}

func TestAppModel_LeaderHintOverlay(t *testing.T) {
	m := NewAppModel(Options{})
	tm := m.AsTeaModel()
	if strings.Contains(tm.View(), "Go to") {
		t.Error("hints should be hidden before SPC")
	}
	tm.Update(keyMsg(" "))
	out := tm.View()
	for _, want := range []string{"Run", "Go to", "Quit", "esc"} {
		if !strings.Contains(out, want) {
			t.Errorf("hint overlay missing %q", want)
		}
	}
	tm.Update(keyMsg("esc"))
	if m.Leader.Active() {
		t.Error("esc should close the hint overlay")
	}
}

func TestAppModel_NavigationKeysReachShell(t *testing.T) {
	m := NewAppModel(Options{})
	tm := m.AsTeaModel()
	tm.Update(keyMsg("tab"))
	if m.Shell.Active() != SectionSettings {
		t.Errorf("after tab Active() = %v, want Settings", m.Shell.Active())
	}
	tm.Update(keyMsg("3"))
	if m.Shell.Active() != SectionLogs {
		t.Errorf("after 3 Active() = %v, want Logs", m.Shell.Active())
	}
}

func TestAppModel_RunStreamsIntoLogs(t *testing.T) {
	runner := &fakeRunner{
		lines:  []string{"Processing general.json", "Wrote out/general_2025-03-01.md"},
		result: hostcmd.Result{Status: "0"},
	}
	m := NewAppModel(Options{
		Config:  &config.AppConfig{InputDir: "exports"},
		EnvPath: "/etc/bridge.env",
		Runner:  runner,
	})
	defer m.Close()
	tm := m.AsTeaModel()

	_, cmd := tm.Update(RunBridgeMsg{DryRun: true, NoEmail: true})
	if cmd == nil {
		t.Fatal("expected run command")
	}
	if m.Mode != ModeRunning || !m.Shell.Logs.running {
		t.Error("expected running state")
	}
	if m.Shell.Active() != SectionLogs {
		t.Errorf("Active() = %v, want Logs", m.Shell.Active())
	}

	drainBridge(t, m, tm)

	if m.Mode != ModeIdle || m.Shell.Logs.running {
		t.Error("expected idle state after run")
	}
	want := hostcmd.Request{Input: "exports", DryRun: true, NoEmail: true, JSONProgress: true, EnvPath: "/etc/bridge.env"}
	if runner.req != want {
		t.Errorf("request = %+v, want %+v", runner.req, want)
	}
	got := strings.Join(m.Shell.Logs.lines, "\n")
	for _, s := range []string{
		"$ bridge-cli --dry-run --no-email --progress json -i exports --config /etc/bridge.env",
		"Processing general.json",
		"Wrote out/general_2025-03-01.md",
		"✓ done",
	} {
		if !strings.Contains(got, s) {
			t.Errorf("logs missing %q:\n%s", s, got)
		}
	}
}

func TestAppModel_RunDecodesProgressEvents(t *testing.T) {
	runner := &fakeRunner{
		lines: []string{
			`{"message":"Wrote summary","status":"done","ts":"2025-03-01T09:30:00Z","meta":{"path":"out/general.md"}}`,
			"2025-03-01T09:30:01.000Z\tINFO\tbridge run complete",
		},
		result: hostcmd.Result{Status: "0"},
	}
	m := NewAppModel(Options{Input: "exports", Runner: runner})
	defer m.Close()
	tm := m.AsTeaModel()

	tm.Update(RunBridgeMsg{DryRun: true})
	drainBridge(t, m, tm)

	got := strings.Join(m.Shell.Logs.lines, "\n")
	for _, s := range []string{
		"[09:30:00] ✓ Wrote summary",
		"      path: out/general.md",
		"bridge run complete",
	} {
		if !strings.Contains(got, s) {
			t.Errorf("logs missing %q:\n%s", s, got)
		}
	}
	if strings.Contains(got, `"status":"done"`) {
		t.Errorf("raw event JSON should not be shown:\n%s", got)
	}
}

type resizingRunner struct {
	fakeRunner
	sizes []hostcmd.Size
}

func (r *resizingRunner) Resize(size hostcmd.Size) error {
	r.sizes = append(r.sizes, size)
	return nil
}

func TestAppModel_WindowSizeResizesBridgeTerminal(t *testing.T) {
	runner := &resizingRunner{}
	m := NewAppModel(Options{Runner: runner})
	tm := m.AsTeaModel()

	tm.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	if len(runner.sizes) != 1 {
		t.Fatalf("resizes = %+v, want one", runner.sizes)
	}
	got := runner.sizes[0]
	if got != m.Shell.Logs.TerminalSize() {
		t.Errorf("resized to %+v, want %+v", got, m.Shell.Logs.TerminalSize())
	}
	if got.Cols != uint16(m.Shell.Logs.viewport.Width-4) {
		t.Errorf("Cols = %d, viewport width %d", got.Cols, m.Shell.Logs.viewport.Width)
	}

	tm.Update(tea.WindowSizeMsg{Width: 90, Height: 30})
	if len(runner.sizes) != 2 || runner.sizes[1].Cols >= got.Cols {
		t.Errorf("resizes = %+v, want a narrower second size", runner.sizes)
	}
}

func TestAppModel_RunFailures(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		want   string
	}{
		{"exit status", &fakeRunner{result: hostcmd.Result{Status: "1"}}, "✗ exit status 1"},
		{"spawn", &fakeRunner{err: errors.New("failed to spawn bridge-cli")}, "✗ failed to spawn bridge-cli"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAppModel(Options{Input: "exports", Runner: tt.runner})
			defer m.Close()
			tm := m.AsTeaModel()
			tm.Update(RunBridgeMsg{})
			if cmd := drainBridge(t, m, tm); cmd != nil {
				t.Error("no reload expected without a run log")
			}
			if m.Mode != ModeIdle {
				t.Errorf("Mode = %v, want Idle", m.Mode)
			}
			if got := strings.Join(m.Shell.Logs.lines, "\n"); !strings.Contains(got, tt.want) {
				t.Errorf("logs missing %q:\n%s", tt.want, got)
			}
		})
	}
}

func TestAppModel_RunIgnoredWhileRunning(t *testing.T) {
	runner := &fakeRunner{}
	m := NewAppModel(Options{Input: "exports", Runner: runner})
	m.Mode = ModeRunning
	_, cmd := m.AsTeaModel().Update(RunBridgeMsg{DryRun: true})
	if cmd != nil || runner.calls != 0 {
		t.Errorf("run should be ignored while running (calls=%d)", runner.calls)
	}
}

func TestAppModel_RunWithoutInputOrRunner(t *testing.T) {
	m := NewAppModel(Options{Runner: &fakeRunner{}})
	if _, cmd := m.AsTeaModel().Update(RunBridgeMsg{}); cmd != nil {
		t.Error("expected no command without input")
	}
	if got := strings.Join(m.Shell.Logs.lines, "\n"); !strings.Contains(got, "no input configured") {
		t.Errorf("logs = %q", got)
	}

	m = NewAppModel(Options{Input: "exports"})
	m.AsTeaModel().Update(RunBridgeMsg{})
	if got := strings.Join(m.Shell.Logs.lines, "\n"); !strings.Contains(got, "no bridge binary configured") {
		t.Errorf("logs = %q", got)
	}
	if m.Mode != ModeIdle {
		t.Errorf("Mode = %v, want Idle", m.Mode)
	}
}

func TestAppModel_StatsAddLiveCards(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeStats{
		stats: runlog.Stats{
			TotalSummaries: 42,
			ActiveChannels: 5,
			LastRun:        &runlog.Run{Status: runlog.StatusOK, Started: now.Add(-time.Hour), Finished: now.Add(-time.Hour)},
		},
		runs: []runlog.Run{{Input: "exports", Status: runlog.StatusOK, Started: now.Add(-time.Hour), Finished: now.Add(-time.Hour)}},
	}
	m := NewAppModel(Options{Store: src})
	m.now = func() time.Time { return now }
	tm := m.AsTeaModel()

	tm.Update(loadStatsCmd(src)())

	cards := m.Shell.Cards()
	if len(cards) != 4 || cards[0].Value != "1,234" || cards[1].Value != "12" {
		t.Fatalf("cards = %+v", cards)
	}
	if cards[2].Value != "42" || cards[2].Caption != "across 5 channels" || cards[3].Caption != "1 hour ago" {
		t.Errorf("live cards = %+v", cards[2:])
	}
	m.Shell.SelectSection(SectionLogs)
	if out := tm.View(); !strings.Contains(out, "exports") {
		t.Error("logs page should list recent runs")
	}

	_, cmd := tm.Update(RefreshMsg{})
	if cmd == nil {
		t.Error("refresh should reload figures when a run log is attached")
	}
}

func TestAppModel_EmptyRunLogKeepsHeadlineCards(t *testing.T) {
	store, err := runlog.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	m := NewAppModel(Options{Store: store})
	tm := m.AsTeaModel()
	tm.Update(loadStatsCmd(store)())

	out := tm.View()
	for _, want := range []string{"Total Summaries", "1,234", "Active Channels", "12", "Recorded Summaries"} {
		if !strings.Contains(out, want) {
			t.Errorf("View missing %q", want)
		}
	}
	cards := m.Shell.Cards()
	if cards[0].Value != "1,234" || cards[1].Value != "12" || cards[2].Value != "0" {
		t.Errorf("cards = %+v", cards)
	}
}

func TestAppModel_StatsErrorKeepsDefaults(t *testing.T) {
	src := &fakeStats{err: errors.New("database is locked")}
	m := NewAppModel(Options{Store: src})
	tm := m.AsTeaModel()
	tm.Update(loadStatsCmd(src)())
	if m.Shell.Cards()[0].Value != "1,234" {
		t.Errorf("cards changed on error: %+v", m.Shell.Cards())
	}
	if got := strings.Join(m.Shell.Logs.lines, "\n"); !strings.Contains(got, "database is locked") {
		t.Errorf("logs = %q", got)
	}
	if _, cmd := NewAppModel(Options{}).AsTeaModel().Update(RefreshMsg{}); cmd != nil {
		t.Error("refresh without a run log should do nothing")
	}
}
