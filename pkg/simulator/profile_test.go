package simulator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	assert.Equal(t, "2.0.0.102", p.Version)
	assert.Equal(t, 1.0, p.TimeScale)
	assert.Equal(t, 200*time.Millisecond, p.MoveDuration)
	require.Len(t, p.CCDs, 1)
	assert.Equal(t, "Camera SN: 2244", p.CCDs[0].SerialNumber)
	assert.Equal(t, 1024, p.CCDs[0].Width)
	assert.Equal(t, 256, p.CCDs[0].Height)
	require.Len(t, p.Monochromators, 1)
	assert.Equal(t, 3, p.Monochromators[0].Gratings)
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile([]byte(`
version: 2.1.0.7
timeScale: 0.01
moveDuration: 50ms
ccds:
  - serialNumber: "Camera SN: 1"
    width: 2048
    height: 512
  - {}
monochromators: []
`))
	require.NoError(t, err)
	assert.Equal(t, "2.1.0.7", p.Version)
	assert.Equal(t, 0.01, p.TimeScale)
	assert.Equal(t, 50*time.Millisecond, p.MoveDuration)
	require.Len(t, p.CCDs, 2)
	assert.Equal(t, 2048, p.CCDs[0].Width)
	assert.Equal(t, "HORIBA Scientific Syncerity", p.CCDs[0].Model)
	assert.Equal(t, "Camera SN: 2245", p.CCDs[1].SerialNumber)
	assert.Empty(t, p.Monochromators)
	assert.Equal(t, 500*time.Microsecond, p.scaled(50*time.Millisecond))
}

func TestParseProfileErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "ccds: [\n"},
		{"negative time scale", "timeScale: -1\n"},
		{"negative chip", "ccds:\n  - width: -5\n"},
		{"negative gratings", "monochromators:\n  - gratings: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 3.0.0.1\n"), 0o600))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "3.0.0.1", p.Version)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
