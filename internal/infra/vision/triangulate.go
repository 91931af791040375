package vision

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

// MeasurePoint is one paired 2D observation named by the operator.
type MeasurePoint struct {
	Name  string    `yaml:"name"`
	Left  []float64 `yaml:"left"`
	Right []float64 `yaml:"right"`
}

type MeasureConfig struct {
	Points []MeasurePoint `yaml:"points"`
}

type TriangulatedPoint struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Z    float64 `yaml:"z"`
}

type TriangulationResult struct {
	Points []TriangulatedPoint `yaml:"points"`
}

// Triangulator converts paired 2D observations into world coordinates
// using the projection matrices of a previous calibration run.
type Triangulator struct {
	logger *zap.Logger
}

func NewTriangulator(logger *zap.Logger) *Triangulator {
	return &Triangulator{logger: logger}
}

func (t *Triangulator) Triangulate(measureFile, calibFile, outFile string) error {
	measure, err := loadMeasureConfig(measureFile)
	if err != nil {
		return err
	}
	if len(measure.Points) == 0 {
		return fmt.Errorf("no measure points in %s", measureFile)
	}

	artifact, err := loadCalibrationArtifact(calibFile)
	if err != nil {
		return err
	}

	p1, err := projectionMat(artifact.Left.Projection)
	if err != nil {
		return fmt.Errorf("left projection: %w", err)
	}
	defer p1.Close()
	p2, err := projectionMat(artifact.Right.Projection)
	if err != nil {
		return fmt.Errorf("right projection: %w", err)
	}
	defer p2.Close()

	leftPts := make([]gocv.Point2f, 0, len(measure.Points))
	rightPts := make([]gocv.Point2f, 0, len(measure.Points))
	for _, mp := range measure.Points {
		if len(mp.Left) != 2 || len(mp.Right) != 2 {
			return fmt.Errorf("measure point %q needs [x, y] for both cameras", mp.Name)
		}
		leftPts = append(leftPts, gocv.Point2f{X: float32(mp.Left[0]), Y: float32(mp.Left[1])})
		rightPts = append(rightPts, gocv.Point2f{X: float32(mp.Right[0]), Y: float32(mp.Right[1])})
	}

	lv := gocv.NewPoint2fVectorFromPoints(leftPts)
	defer lv.Close()
	rv := gocv.NewPoint2fVectorFromPoints(rightPts)
	defer rv.Close()

	homogeneous := gocv.NewMat()
	defer homogeneous.Close()
	gocv.TriangulatePoints(p1, p2, lv, rv, &homogeneous)

	result := TriangulationResult{}
	for i, mp := range measure.Points {
		x, y, z, err := fromHomogeneous(
			float64(homogeneous.GetFloatAt(0, i)),
			float64(homogeneous.GetFloatAt(1, i)),
			float64(homogeneous.GetFloatAt(2, i)),
			float64(homogeneous.GetFloatAt(3, i)),
		)
		if err != nil {
			return fmt.Errorf("point %q: %w", mp.Name, err)
		}
		result.Points = append(result.Points, TriangulatedPoint{Name: mp.Name, X: x, Y: y, Z: z})
	}

	data, err := yaml.Marshal(&result)
	if err != nil {
		return fmt.Errorf("marshal triangulation result: %w", err)
	}
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		return fmt.Errorf("write triangulation result: %w", err)
	}

	t.logger.Info("triangulation written",
		zap.String("file", outFile),
		zap.Int("points", len(result.Points)),
	)
	return nil
}

func loadMeasureConfig(path string) (*MeasureConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read measure config: %w", err)
	}
	cfg := &MeasureConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse measure config: %w", err)
	}
	return cfg, nil
}

func loadCalibrationArtifact(path string) (*CalibrationArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration artifact: %w", err)
	}
	artifact := &CalibrationArtifact{}
	if err := yaml.Unmarshal(data, artifact); err != nil {
		return nil, fmt.Errorf("parse calibration artifact: %w", err)
	}
	return artifact, nil
}

func projectionMat(values []float64) (gocv.Mat, error) {
	if len(values) != 12 {
		return gocv.Mat{}, fmt.Errorf("projection must hold 12 values, got %d", len(values))
	}
	m := gocv.NewMatWithSize(3, 4, gocv.MatTypeCV32F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			m.SetFloatAt(r, c, float32(values[r*4+c]))
		}
	}
	return m, nil
}

func fromHomogeneous(x, y, z, w float64) (float64, float64, float64, error) {
	if w == 0 {
		return 0, 0, 0, fmt.Errorf("point at infinity")
	}
	return x / w, y / w, z / w, nil
}
