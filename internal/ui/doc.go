// Package ui is the Bubble Tea dashboard for the Discord bridge.
//
// The root AppModel hosts a ShellView: a sidebar listing the Dashboard,
// Settings and Logs sections and a main area with the page title, metric
// cards and the active page. Keys go through a Leader first (SPC leader
// sequences), then to the shell. Bridge runs are streamed from a child
// process into the Logs page and figures are reloaded from the run log when
// one is attached.
package ui
