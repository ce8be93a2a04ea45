package ui

// AppMode is the top-level application mode. Run bindings only apply when idle.
type AppMode int

const (
	ModeIdle AppMode = iota
	ModeRunning
)

func (m AppMode) String() string {
	switch m {
	case ModeIdle:
		return "Idle"
	case ModeRunning:
		return "Running"
	default:
		return "Unknown"
	}
}
