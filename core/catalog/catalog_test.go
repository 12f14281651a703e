package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/xcharge/core/model"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	pods := c.Pods()
	require.Len(t, pods, 4)
	assert.Equal(t, "HARMONY DIRECT 2.0", pods[0].Name)
	assert.Equal(t, 3, pods[0].ETAMinutes)
	assert.Equal(t, 4, c.TriviaLen())

	p, err := c.Lookup(2)
	require.NoError(t, err)
	assert.Equal(t, 5, p.ETAMinutes)
	require.NotNil(t, p.Coordinates)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Default().Lookup(42)
	if !errors.Is(err, ErrUnknownPod) {
		t.Fatalf("expected ErrUnknownPod got %v", err)
	}
}

func TestPodsReturnsCopy(t *testing.T) {
	c := Default()
	pods := c.Pods()
	pods[0].Name = "mutated"
	p, _ := c.Lookup(pods[0].ID)
	assert.NotEqual(t, "mutated", p.Name)
}

func TestTriviaAtWraps(t *testing.T) {
	c := Default()
	assert.Equal(t, c.TriviaAt(0), c.TriviaAt(4))
	assert.Equal(t, c.TriviaAt(3), c.TriviaAt(-1))

	empty, err := New(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.Trivia{}, empty.TriviaAt(7))
}

func TestNewRejectsDuplicates(t *testing.T) {
	p := model.Pod{ID: 1, Name: "a", ETAMinutes: 1, Reliability: 90}
	if _, err := New([]model.Pod{p, p}, nil); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestDecodeJSON(t *testing.T) {
	data := `{"pods":[{"id":7,"name":"X","power":"50kW","eta":4,"dist":"1km","reliability":95.2}],"trivia":[{"title":"t","detail":"d"}]}`
	c, err := Decode(strings.NewReader(data), "json")
	require.NoError(t, err)
	p, err := c.Lookup(7)
	require.NoError(t, err)
	assert.Equal(t, 95, p.Confidence())
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(strings.NewReader("{}"), "toml"); err == nil {
		t.Fatalf("expected format error")
	}
	if _, err := Decode(strings.NewReader("pods: [{id: 1}]"), "yaml"); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pods.yaml")
	data := "pods:\n  - id: 9\n    name: TEST\n    eta: 6\n    reliability: 90\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	p, err := c.Lookup(9)
	require.NoError(t, err)
	assert.Equal(t, 360, p.ETASeconds())

	def, err := Load("")
	require.NoError(t, err)
	assert.Len(t, def.Pods(), 4)
}
