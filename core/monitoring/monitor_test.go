package monitoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureExceptionUsesCurrentMonitor(t *testing.T) {
	rec := &Recorder{}
	Init(rec)
	defer Init(nil)

	CaptureException(errors.New("boom"), map[string]string{"stage": "tracking"})
	ev := rec.Events()
	require.Len(t, ev, 1)
	assert.EqualError(t, ev[0].Err, "boom")
	assert.Equal(t, "tracking", ev[0].Tags["stage"])
}

func TestInitNilRestoresNop(t *testing.T) {
	Init(nil)
	assert.IsType(t, NopMonitor{}, get())
	assert.NotPanics(t, func() { CaptureException(errors.New("x"), nil) })
}

func TestRecoverRepanicsWithNop(t *testing.T) {
	Init(nil)
	assert.PanicsWithValue(t, "fatal", func() {
		defer Recover()
		panic("fatal")
	})
}
