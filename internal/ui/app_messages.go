package ui

import (
	"discordbridge/internal/hostcmd"
	"discordbridge/internal/runlog"
)

// SelectSectionMsg activates a section (SPC g d/s/l).
type SelectSectionMsg struct {
	Section Section
}

// RunBridgeMsg starts a bridge run on the configured input (SPC r r, SPC r e, SPC r n).
type RunBridgeMsg struct {
	DryRun  bool
	NoEmail bool
}

// BridgeLineMsg carries one line of bridge output.
type BridgeLineMsg struct {
	Line string
}

// BridgeDoneMsg is sent when the bridge process exits or fails to start.
type BridgeDoneMsg struct {
	Result hostcmd.Result
	Err    error
}

// StatsLoadedMsg carries figures read from the run log.
type StatsLoadedMsg struct {
	Stats runlog.Stats
	Runs  []runlog.Run
	Err   error
}

// RefreshMsg reloads figures from the run log (SPC l).
type RefreshMsg struct{}
