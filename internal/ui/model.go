// Package ui is the terminal front-end of the dispatch view. It renders the
// snapshots published by the service and turns key presses into actions;
// it never touches the machine directly.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilianp07/xcharge/core/dispatch"
	"github.com/kilianp07/xcharge/infra/mapview"
)

// Controller applies actions on the machine goroutine.
type Controller interface {
	Apply(ctx context.Context, a dispatch.Action) (dispatch.Snapshot, error)
}

type snapshotMsg dispatch.Snapshot

type feedClosedMsg struct{}

type actionMsg struct {
	action dispatch.Action
	snap   dispatch.Snapshot
	err    error
}

// Model is the root Bubble Tea model.
type Model struct {
	ctrl   Controller
	feed   <-chan dispatch.Snapshot
	mapCfg mapview.Config

	snap     dispatch.Snapshot
	cursor   int
	keys     keyMap
	help     help.Model
	showHelp bool
	bar      progress.Model
	status   string
	rejected bool
	width    int
}

// NewModel renders snapshots from feed and sends actions to ctrl. initial
// is shown until the first snapshot arrives.
func NewModel(ctrl Controller, feed <-chan dispatch.Snapshot, initial dispatch.Snapshot, mapCfg mapview.Config) Model {
	return Model{
		ctrl:   ctrl,
		feed:   feed,
		mapCfg: mapCfg,
		snap:   initial,
		keys:   defaultKeys(),
		help:   help.New(),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		status: "ready",
	}
}

func (m Model) Init() tea.Cmd { return waitSnapshot(m.feed) }

func waitSnapshot(feed <-chan dispatch.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-feed
		if !ok {
			return feedClosedMsg{}
		}
		return snapshotMsg(s)
	}
}

func (m Model) apply(a dispatch.Action) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		snap, err := ctrl.Apply(ctx, a)
		return actionMsg{action: a, snap: snap, err: err}
	}
}

// Snapshot returns the state currently rendered.
func (m Model) Snapshot() dispatch.Snapshot { return m.snap }

// Status returns the status line text.
func (m Model) Status() string { return m.status }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-12, 10), 60)

	case snapshotMsg:
		m.setSnapshot(dispatch.Snapshot(msg))
		return m, waitSnapshot(m.feed)

	case feedClosedMsg:
		return m, tea.Quit

	case actionMsg:
		if msg.err != nil {
			m.status = msg.action.String() + ": " + msg.err.Error()
			m.rejected = true
			return m, nil
		}
		m.rejected = false
		m.status = msg.action.String()
		m.setSnapshot(msg.snap)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Help) {
			m.showHelp = !m.showHelp
			return m, nil
		}
		if a, ok := m.actionFor(msg); ok {
			return m, m.apply(a)
		}
	}
	return m, nil
}

func (m *Model) setSnapshot(s dispatch.Snapshot) {
	m.snap = s
	if m.cursor >= len(s.Pods) {
		m.cursor = max(len(s.Pods)-1, 0)
	}
}

// actionFor maps a key press to the action it triggers in the current
// stage. Cursor moves are handled in place.
func (m *Model) actionFor(msg tea.KeyMsg) (dispatch.Action, bool) {
	switch m.snap.Stage {
	case dispatch.StageWelcome:
		if key.Matches(msg, m.keys.Confirm) {
			return dispatch.Confirm(), true
		}
	case dispatch.StageMap:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.snap.Pods)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Confirm):
			if len(m.snap.Pods) > 0 {
				return dispatch.SelectPod(m.snap.Pods[m.cursor].ID), true
			}
		}
	case dispatch.StageDetails:
		switch {
		case key.Matches(msg, m.keys.Pay):
			return dispatch.Pay(), true
		case key.Matches(msg, m.keys.Confirm):
			if m.snap.PaymentOpen {
				return dispatch.Pay(), true
			}
			return dispatch.Confirm(), true
		case key.Matches(msg, m.keys.Back):
			return dispatch.Back(), true
		case key.Matches(msg, m.keys.Abort):
			return dispatch.Abort(), true
		}
	case dispatch.StageDispatch, dispatch.StageTracking:
		if key.Matches(msg, m.keys.Abort) || (m.snap.Arrived && key.Matches(msg, m.keys.Confirm)) {
			return dispatch.Abort(), true
		}
	}
	return dispatch.Action{}, false
}
