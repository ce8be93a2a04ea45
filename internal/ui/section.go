package ui

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Section is one of the fixed navigation destinations.
type Section int

const (
	SectionDashboard Section = iota
	SectionSettings
	SectionLogs
)

// Sections lists every Section in navigation order.
var Sections = []Section{SectionDashboard, SectionSettings, SectionLogs}

var titleCaser = cases.Title(language.English)

// ID is the lowercase identifier of the section.
func (s Section) ID() string {
	switch s {
	case SectionDashboard:
		return "dashboard"
	case SectionSettings:
		return "settings"
	case SectionLogs:
		return "logs"
	default:
		return ""
	}
}

// Title is the title-cased label shown in the navigation and page heading.
func (s Section) Title() string {
	return titleCaser.String(s.ID())
}

func (s Section) String() string {
	if !s.Valid() {
		return "Unknown"
	}
	return s.Title()
}

// Valid reports whether s is one of Sections.
func (s Section) Valid() bool {
	return s >= SectionDashboard && s <= SectionLogs
}

// Next returns the following section, wrapping to the first.
func (s Section) Next() Section {
	return Sections[(int(s)+1)%len(Sections)]
}

// Prev returns the preceding section, wrapping to the last.
func (s Section) Prev() Section {
	return Sections[(int(s)+len(Sections)-1)%len(Sections)]
}
