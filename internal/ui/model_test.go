package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/xcharge/core/catalog"
	"github.com/kilianp07/xcharge/core/dispatch"
	"github.com/kilianp07/xcharge/core/scheduler"
	"github.com/kilianp07/xcharge/infra/mapview"
)

type machineController struct{ m *dispatch.Machine }

func (c machineController) Apply(_ context.Context, a dispatch.Action) (dispatch.Snapshot, error) {
	err := c.m.Handle(a)
	return c.m.Snapshot(), err
}

func newModel(t *testing.T) (Model, *dispatch.Machine, chan dispatch.Snapshot) {
	t.Helper()
	clock := scheduler.NewManual(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	cfg := dispatch.DefaultConfig()
	cfg.WelcomeDelayMS = -1
	m, err := dispatch.NewMachine(cfg, catalog.Default(), clock, dispatch.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(m.Close)
	feed := make(chan dispatch.Snapshot, 1)
	return NewModel(machineController{m: m}, feed, m.Snapshot(), mapview.Config{}), m, feed
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and feeds the resulting action back into the model.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	next, cmd := m.Update(keyMsg(k))
	m = next.(Model)
	if cmd == nil {
		return m
	}
	msg := cmd()
	if _, ok := msg.(actionMsg); !ok {
		return m
	}
	next, _ = m.Update(msg)
	return next.(Model)
}

func TestWelcomeToMap(t *testing.T) {
	m, _, _ := newModel(t)
	assert.Contains(t, m.View(), "press enter to find a pod")

	m = press(t, m, "enter")
	assert.Equal(t, dispatch.StageMap, m.Snapshot().Stage)
	view := m.View()
	assert.Contains(t, view, "HARMONY DIRECT 2.0")
	assert.Contains(t, view, "240kW • ETA 3 min")
	assert.Contains(t, view, "output=embed")
}

func TestSelectAndPay(t *testing.T) {
	m, machine, _ := newModel(t)
	m = press(t, m, "enter")
	m = press(t, m, "down")
	m = press(t, m, "enter")

	snap := m.Snapshot()
	require.Equal(t, dispatch.StageDetails, snap.Stage)
	require.NotNil(t, snap.SelectedPod)
	assert.Equal(t, 2, snap.SelectedPod.ID)
	view := m.View()
	assert.Contains(t, view, "HARMONY BOOST")
	assert.Contains(t, view, "400kW")
	assert.Contains(t, view, "99.7%")

	m = press(t, m, "enter")
	require.True(t, m.Snapshot().PaymentOpen)
	view = m.View()
	assert.Contains(t, view, "₹1,250")
	assert.Contains(t, view, "₹150")
	assert.Contains(t, view, "₹1,400")
	assert.Contains(t, view, "PAY & DISPATCH (BYPASS)")

	m = press(t, m, "p")
	assert.Equal(t, dispatch.StageDispatch, m.Snapshot().Stage)
	assert.Equal(t, dispatch.StageDispatch, machine.Stage())
	assert.Contains(t, m.View(), "Dispatching HARMONY BOOST")
}

func TestBackAndAbort(t *testing.T) {
	m, _, _ := newModel(t)
	m = press(t, m, "enter")
	m = press(t, m, "enter")
	require.Equal(t, dispatch.StageDetails, m.Snapshot().Stage)
	m = press(t, m, "esc")
	assert.Equal(t, dispatch.StageMap, m.Snapshot().Stage)

	m = press(t, m, "enter")
	m = press(t, m, "enter")
	m = press(t, m, "enter")
	require.Equal(t, dispatch.StageDispatch, m.Snapshot().Stage)
	m = press(t, m, "x")
	assert.Equal(t, dispatch.StageMap, m.Snapshot().Stage)
}

func TestRejectionShownInStatus(t *testing.T) {
	m, _, _ := newModel(t)
	m = press(t, m, "enter")
	m = press(t, m, "enter")
	m = press(t, m, "p")
	assert.Equal(t, dispatch.StageDetails, m.Snapshot().Stage)
	assert.Contains(t, m.Status(), "pay")
	assert.Contains(t, m.View(), "not allowed")
}

func TestCursorBounds(t *testing.T) {
	m, _, _ := newModel(t)
	m = press(t, m, "enter")
	m = press(t, m, "up")
	assert.Equal(t, 0, m.cursor)
	for i := 0; i < 10; i++ {
		m = press(t, m, "down")
	}
	assert.Equal(t, 3, m.cursor)
}

func TestSnapshotFeed(t *testing.T) {
	m, _, feed := newModel(t)
	feed <- dispatch.Snapshot{
		Stage:            dispatch.StageTracking,
		BatteryLevel:     4,
		LowBattery:       true,
		Countdown:        "2:30",
		TrackingProgress: 50,
	}
	msg := m.Init()()
	next, cmd := m.Update(msg)
	m = next.(Model)
	require.NotNil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "battery 4% LOW")
	assert.Contains(t, view, "2:30")

	close(feed)
	_, cmd = m.Update(cmd())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestQuit(t *testing.T) {
	m, _, _ := newModel(t)
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestArrivedView(t *testing.T) {
	m, _, _ := newModel(t)
	m.snap = dispatch.Snapshot{Stage: dispatch.StageTracking, Arrived: true, Countdown: "0:00", TrackingProgress: 100}
	assert.Contains(t, m.View(), "has arrived")
	m = press(t, m, "enter")
	// the machine is still on welcome, so the abort is rejected
	assert.Contains(t, m.Status(), "abort")
}
