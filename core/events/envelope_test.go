package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	in := []any{
		StageEvent{SessionID: "s1", From: "details", To: "dispatch", PodID: 2, Reason: "paid", Time: now},
		CounterEvent{Counter: CounterLoad, Value: 42, Time: now},
		OverlayEvent{PodID: 2, Open: true, Time: now},
		ArrivalEvent{SessionID: "s1", PodID: 2, Time: now},
		RejectedEvent{Action: "pay", Stage: "map", Reason: "invalid_action", Time: now},
	}
	for _, ev := range in {
		env, err := Wrap(ev)
		require.NoError(t, err)
		assert.Equal(t, now, env.Time)

		b, err := json.Marshal(env)
		require.NoError(t, err)
		var back Envelope
		require.NoError(t, json.Unmarshal(b, &back))
		got, err := back.Decode()
		require.NoError(t, err)
		assert.Equal(t, ev, got)
	}
}

func TestWrapUnknown(t *testing.T) {
	_, err := Wrap("hello")
	assert.Error(t, err)
	assert.Equal(t, "", Name(42))
	assert.Equal(t, TypeStage, Name(&StageEvent{}))

	_, err = Envelope{Type: "nope"}.Decode()
	assert.Error(t, err)
}
