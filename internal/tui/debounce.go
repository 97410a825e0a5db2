package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// commitMsg fires once the form has been quiet for the debounce interval.
type commitMsg struct{ tag int }

// debouncer coalesces bursts of edits: every touch supersedes the previous
// one, so only the last tick in a burst is settled.
type debouncer struct {
	interval time.Duration
	tag      int
}

func (d *debouncer) touch() tea.Cmd {
	d.tag++
	tag := d.tag
	return tea.Tick(d.interval, func(time.Time) tea.Msg {
		return commitMsg{tag: tag}
	})
}

func (d debouncer) settled(msg commitMsg) bool {
	return msg.tag == d.tag
}
