package vision

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRodriguesZeroVectorIsIdentity(t *testing.T) {
	r := rodrigues([3]float64{0, 0, 0})
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, r[i][j], 1e-12)
		}
	}
}

func TestRodriguesQuarterTurnAboutZ(t *testing.T) {
	r := rodrigues([3]float64{0, 0, math.Pi / 2})
	want := [3][3]float64{
		{0, -1, 0},
		{1, 0, 0},
		{0, 0, 1},
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want[i][j], r[i][j], 1e-9)
		}
	}
}

func TestProjectionMatrixIdentityPose(t *testing.T) {
	k := []float64{
		800, 0, 320,
		0, 800, 240,
		0, 0, 1,
	}
	identity := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	p := projectionMatrix(k, identity, [3]float64{0, 0, 0})
	require.Len(t, p, 12)

	// P = K [I|0]: the left 3x3 block is K, the last column zero.
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, k[i*3+j], p[i*4+j], 1e-12)
		}
		assert.InDelta(t, 0, p[i*4+3], 1e-12)
	}
}

func TestFromHomogeneous(t *testing.T) {
	x, y, z, err := fromHomogeneous(2, 4, 6, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 2.0, y)
	assert.Equal(t, 3.0, z)

	_, _, _, err = fromHomogeneous(1, 1, 1, 0)
	assert.Error(t, err)
}

func TestLoadMeasureConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "measure_points.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
points:
  - name: nose
    left: [120.5, 340.0]
    right: [98.0, 338.5]
  - name: tail
    left: [420.0, 360.0]
    right: [388.0, 361.0]
`), 0o644))

	cfg, err := loadMeasureConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Points, 2)
	assert.Equal(t, "nose", cfg.Points[0].Name)
	assert.Equal(t, []float64{120.5, 340.0}, cfg.Points[0].Left)
}

func TestCalibrationArtifactRoundTrip(t *testing.T) {
	artifact := CalibrationArtifact{
		ImageWidth:   1920,
		ImageHeight:  1440,
		BoardCols:    9,
		BoardRows:    6,
		SquareSizeMM: 25,
		Left: CameraIntrinsics{
			CameraMatrix: []float64{800, 0, 960, 0, 800, 720, 0, 0, 1},
			DistCoeffs:   []float64{0.01, -0.02, 0, 0, 0},
			Projection:   []float64{800, 0, 960, 0, 0, 800, 720, 0, 0, 0, 1, 0},
			Views:        12,
		},
	}

	data, err := yaml.Marshal(&artifact)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "stereo_calibration.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := loadCalibrationArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, &artifact, got)
}

func TestBoardPointsLayout(t *testing.T) {
	c := NewCalibrator(CalibratorConfig{BoardCols: 3, BoardRows: 2, SquareSizeMM: 10}, nil, nil)
	pts := c.boardPoints()
	require.Len(t, pts, 6)
	assert.Equal(t, float32(0), pts[0].X)
	assert.Equal(t, float32(20), pts[2].X)
	assert.Equal(t, float32(10), pts[5].Y)
	for _, p := range pts {
		assert.Equal(t, float32(0), p.Z)
	}
}
