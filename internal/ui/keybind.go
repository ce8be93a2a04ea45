package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// leaderSeq is how the space leader is written in key sequences.
const leaderSeq = "SPC"

// Keymap binds key sequences to commands. Sequences are space separated:
// "SPC r r" is space, r, r. Single keys use Bubble Tea names such as "q" or
// "ctrl+c".
type Keymap struct {
	bindings map[string]binding
	groups   map[string]string
}

type binding struct {
	cmd   tea.Cmd
	desc  string
	modes []AppMode // empty: every mode
}

func (b binding) activeIn(mode AppMode) bool {
	if len(b.modes) == 0 {
		return true
	}
	for _, m := range b.modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Hint is one entry of the leader help bar.
type Hint struct {
	Key  string
	Desc string
}

// NewKeymap returns an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{bindings: make(map[string]binding), groups: make(map[string]string)}
}

// Bind maps seq to cmd. With modes, the binding only fires and is only
// hinted in those modes. Rebinding a sequence replaces it.
func (k *Keymap) Bind(seq, desc string, cmd tea.Cmd, modes ...AppMode) {
	k.bindings[canonical(seq)] = binding{cmd: cmd, desc: desc, modes: modes}
}

// Group labels a prefix that opens a submenu, e.g. "SPC r" as "Run".
func (k *Keymap) Group(prefix, label string) {
	k.groups[canonical(prefix)] = label
}

// Lookup returns the command bound to seq in mode, or nil.
func (k *Keymap) Lookup(seq string, mode AppMode) tea.Cmd {
	b, ok := k.bindings[canonical(seq)]
	if !ok || !b.activeIn(mode) {
		return nil
	}
	return b.cmd
}

// continues reports whether a binding active in mode extends seq.
func (k *Keymap) continues(seq string, mode AppMode) bool {
	prefix := canonical(seq) + " "
	for s, b := range k.bindings {
		if b.cmd != nil && b.activeIn(mode) && strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// Hints lists the keys that may follow prefix in mode, sorted by key.
// A key that opens a submenu shows its group label.
func (k *Keymap) Hints(prefix string, mode AppMode) []Hint {
	prefix = canonical(prefix)
	seen := make(map[string]string)
	for s, b := range k.bindings {
		rest, ok := strings.CutPrefix(s, prefix+" ")
		if !ok || b.cmd == nil || !b.activeIn(mode) {
			continue
		}
		next, deeper, _ := strings.Cut(rest, " ")
		switch {
		case deeper == "":
			seen[next] = b.desc
		case seen[next] == "":
			label, ok := k.groups[prefix+" "+next]
			if !ok {
				label = next + "…"
			}
			seen[next] = label
		}
	}
	hints := make([]Hint, 0, len(seen))
	for key, desc := range seen {
		if desc == "" {
			desc = key
		}
		hints = append(hints, Hint{Key: key, Desc: desc})
	}
	sort.Slice(hints, func(i, j int) bool { return hints[i].Key < hints[j].Key })
	return hints
}

// canonical writes the space key as SPC and collapses whitespace.
func canonical(seq string) string {
	if seq == " " {
		return leaderSeq
	}
	parts := strings.Fields(seq)
	for i, p := range parts {
		if p == "space" {
			parts[i] = leaderSeq
		}
	}
	return strings.Join(parts, " ")
}

// Leader dispatches keys through a Keymap. Space starts a sequence; keys
// pressed while one is pending extend it until it matches a binding or
// cannot match any.
type Leader struct {
	keymap  *Keymap
	pending []string
}

// NewLeader returns a Leader over km.
func NewLeader(km *Keymap) *Leader {
	return &Leader{keymap: km}
}

// Active reports whether a sequence is pending.
func (l *Leader) Active() bool { return len(l.pending) > 0 }

// Prefix is the pending sequence, e.g. "SPC r".
func (l *Leader) Prefix() string { return strings.Join(l.pending, " ") }

// Reset drops the pending sequence.
func (l *Leader) Reset() { l.pending = nil }

// Handle reports whether msg was consumed and the command it triggered.
// Keys that are not consumed belong to the views.
func (l *Leader) Handle(msg tea.KeyMsg, mode AppMode) (bool, tea.Cmd) {
	s := canonical(msg.String())

	if !l.Active() {
		if s == leaderSeq {
			l.pending = []string{leaderSeq}
			return true, nil
		}
		cmd := l.keymap.Lookup(s, mode)
		return cmd != nil, cmd
	}

	if s == "esc" {
		l.Reset()
		return true, nil
	}
	seq := l.Prefix() + " " + s
	if cmd := l.keymap.Lookup(seq, mode); cmd != nil {
		l.Reset()
		return true, cmd
	}
	if l.keymap.continues(seq, mode) {
		l.pending = append(l.pending, s)
		return true, nil
	}
	l.Reset()
	return true, nil
}

// hintBindings converts the hints after the pending prefix into help
// bindings, closing with esc.
func (l *Leader) hintBindings(mode AppMode) []key.Binding {
	hints := l.keymap.Hints(l.Prefix(), mode)
	if len(hints) == 0 {
		return nil
	}
	out := make([]key.Binding, 0, len(hints)+1)
	for _, h := range hints {
		out = append(out, key.NewBinding(key.WithKeys(h.Key), key.WithHelp(h.Key, h.Desc)))
	}
	return append(out, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")))
}
