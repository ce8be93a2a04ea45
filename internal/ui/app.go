package ui

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"discordbridge/internal/config"
	"discordbridge/internal/hostcmd"
	"discordbridge/internal/progress"
)

// Options wires the dashboard to its collaborators. Only Config is needed
// to render; Runner and Store enable runs and live figures.
type Options struct {
	Config    *config.AppConfig
	ConfigErr error
	EnvPath   string // passed to the bridge as --config
	Input     string // defaults to Config.InputDir
	Runner    BridgeRunner
	Store     StatsSource
	Logger    *zap.Logger
}

// AppModel is the root model. It owns the shell view and routes runs and
// run log figures into it.
type AppModel struct {
	Mode   AppMode
	Shell  *ShellView
	Leader *Leader

	opts   Options
	logger *zap.Logger
	stream *bridgeStream
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

// Ensure AppModel can be used as tea.Model via adapter.
var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps AppModel to implement tea.Model.
type appModelAdapter struct {
	*AppModel
}

// Init implements tea.Model.
func (a *appModelAdapter) Init() tea.Cmd {
	cmds := []tea.Cmd{a.Shell.Init()}
	if a.opts.Store != nil {
		cmds = append(cmds, loadStatsCmd(a.opts.Store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RunBridgeMsg:
		return a, a.startRun(msg)
	case BridgeLineMsg:
		if ev, ok := progress.ParseLine(msg.Line); ok {
			a.Shell.Logs.AppendEvent(ev)
		} else {
			a.Shell.Logs.AppendLine(msg.Line)
		}
		if a.stream == nil {
			return a, nil
		}
		return a, waitForBridge(a.stream)
	case BridgeDoneMsg:
		return a, a.finishRun(msg)
	case StatsLoadedMsg:
		if msg.Err != nil {
			a.logger.Warn("failed to load run log", zap.Error(msg.Err))
			a.Shell.Logs.AppendLine("run log: " + msg.Err.Error())
			return a, nil
		}
		now := a.now()
		a.Shell.SetCards(CardsFromStats(msg.Stats, now))
		a.Shell.Logs.SetRuns(msg.Runs, now)
		a.resizeTerminal()
		return a, nil
	case RefreshMsg:
		if a.opts.Store == nil {
			return a, nil
		}
		return a, loadStatsCmd(a.opts.Store)
	case tea.KeyMsg:
		// Global bindings and SPC sequences win over the views.
		if consumed, keyCmd := a.Leader.Handle(msg, a.Mode); consumed {
			return a, keyCmd
		}
	}

	v, cmd := a.Shell.Update(msg)
	if s, ok := v.(*ShellView); ok {
		a.Shell = s
	}
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		a.resizeTerminal()
	}
	return a, cmd
}

// resizeTerminal keeps the bridge's terminal the size of the Logs viewport,
// which changes with the window and with the card and run lists.
func (a *AppModel) resizeTerminal() {
	r, ok := a.opts.Runner.(TerminalResizer)
	if !ok {
		return
	}
	if err := r.Resize(a.Shell.Logs.TerminalSize()); err != nil {
		a.logger.Debug("failed to resize bridge terminal", zap.Error(err))
	}
}

// View implements tea.Model.
func (a *appModelAdapter) View() string {
	base := a.Shell.View()
	if a.Leader.Active() {
		base += "\n" + renderLeaderHelp(a.Leader, a.Mode)
	}
	return base
}

// startRun launches the bridge unless a run is already in progress.
func (a *AppModel) startRun(msg RunBridgeMsg) tea.Cmd {
	if a.Mode == ModeRunning {
		return nil
	}
	a.Shell.SelectSection(SectionLogs)
	if a.opts.Runner == nil {
		a.Shell.Logs.AppendLine("no bridge binary configured")
		return nil
	}
	input := a.input()
	if input == "" {
		a.Shell.Logs.AppendLine("no input configured: set INPUT_DIR")
		return nil
	}

	req := hostcmd.Request{
		Input:        input,
		DryRun:       msg.DryRun,
		NoEmail:      msg.NoEmail,
		JSONProgress: true,
		EnvPath:      a.opts.EnvPath,
	}
	a.logger.Info("starting bridge run",
		zap.String("input", input),
		zap.Bool("dry_run", msg.DryRun),
		zap.Bool("no_email", msg.NoEmail))
	a.Mode = ModeRunning
	a.Shell.Logs.AppendLine("$ " + filepath.Base(a.binary()) + " " + strings.Join(req.Args(), " "))
	a.stream = startBridge(a.ctx, a.opts.Runner, req)
	return tea.Batch(waitForBridge(a.stream), a.Shell.Logs.SetRunning(true))
}

// finishRun records the outcome and refreshes figures.
func (a *AppModel) finishRun(msg BridgeDoneMsg) tea.Cmd {
	a.Mode = ModeIdle
	a.stream = nil
	a.Shell.Logs.SetRunning(false)
	switch {
	case msg.Err != nil:
		a.logger.Error("bridge run failed", zap.Error(msg.Err))
		a.Shell.Logs.AppendLine("✗ " + msg.Err.Error())
	case !msg.Result.OK():
		a.logger.Warn("bridge exited with failure", zap.String("status", msg.Result.Status))
		a.Shell.Logs.AppendLine("✗ exit status " + msg.Result.Status)
	default:
		a.logger.Info("bridge run finished")
		a.Shell.Logs.AppendLine("✓ done")
	}
	if a.opts.Store == nil {
		return nil
	}
	return loadStatsCmd(a.opts.Store)
}

func (a *AppModel) binary() string {
	if r, ok := a.opts.Runner.(*hostcmd.Runner); ok && r.Binary != "" {
		return r.Binary
	}
	return hostcmd.DefaultBinary
}

func (a *AppModel) input() string {
	if a.opts.Input != "" {
		return a.opts.Input
	}
	if a.opts.Config != nil {
		return a.opts.Config.InputDir
	}
	return ""
}

// Close stops any run in progress.
func (a *AppModel) Close() {
	a.cancel()
}

// NewAppModel creates the root application model.
func NewAppModel(opts Options) *AppModel {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	shell := NewShellView()
	shell.Settings = NewSettingsPage(opts.Config, opts.ConfigErr)

	run := func(dryRun, noEmail bool) tea.Cmd {
		return func() tea.Msg { return RunBridgeMsg{DryRun: dryRun, NoEmail: noEmail} }
	}
	goTo := func(sec Section) tea.Cmd {
		return func() tea.Msg { return SelectSectionMsg{Section: sec} }
	}

	km := NewKeymap()
	km.Bind("q", "Quit", tea.Quit)
	km.Bind("ctrl+c", "Quit", tea.Quit)
	km.Bind("SPC q", "Quit", tea.Quit)
	km.Group("SPC r", "Run")
	km.Bind("SPC r r", "Dry run", run(true, true), ModeIdle)
	km.Bind("SPC r e", "Run and email", run(false, false), ModeIdle)
	km.Bind("SPC r n", "Run without email", run(false, true), ModeIdle)
	km.Group("SPC g", "Go to")
	for _, sec := range Sections {
		km.Bind("SPC g "+sec.ID()[:1], sec.Title(), goTo(sec))
	}
	km.Bind("SPC l", "Reload figures", func() tea.Msg { return RefreshMsg{} })

	ctx, cancel := context.WithCancel(context.Background())
	return &AppModel{
		Mode:   ModeIdle,
		Shell:  shell,
		Leader: NewLeader(km),
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (m *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: m}
}
