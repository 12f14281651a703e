package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		sc, err := Load(f)
		require.NoError(t, err, f)
		t.Run(sc.Name, func(t *testing.T) {
			res, err := Run(sc)
			require.NoError(t, err)
			exp := sc.Expected
			assert.Equal(t, exp.Stage, res.Stage)
			assert.Equal(t, exp.Arrived, res.Arrived)
			assert.Equal(t, exp.Rejections, res.Rejections)
			if exp.Transitions != nil {
				assert.Equal(t, exp.Transitions, res.Transitions)
			}
			if exp.Battery != nil {
				assert.Equal(t, *exp.Battery, res.Battery)
			}
		})
	}
}

func TestLoadRejectsAmbiguousStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := "name: bad\nsteps:\n  - action: confirm\n    advance: 1s\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "step 0")
}

func TestRunReportsUnexpectedRejection(t *testing.T) {
	sc := &Scenario{Name: "pay first", Steps: []Step{{Action: "pay"}}}
	_, err := Run(sc)
	assert.ErrorContains(t, err, "pay")
}
