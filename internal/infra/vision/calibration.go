package vision

import (
	"fmt"
	"image"
	"math"
	"os"
	"sort"

	"github.com/finwatch/finwatch-processing-service/internal/domain/port"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

// CameraIntrinsics is the per-camera output of a calibration run.
// Matrices are stored row-major. The projection matrix is composed from
// the intrinsics and the board pose of the last accepted view, so both
// cameras project into the same board-anchored world frame.
type CameraIntrinsics struct {
	CameraMatrix      []float64 `yaml:"camera_matrix"`
	DistCoeffs        []float64 `yaml:"dist_coeffs"`
	Projection        []float64 `yaml:"projection"`
	ReprojectionError float64   `yaml:"reprojection_error"`
	Views             int       `yaml:"views"`
}

// CalibrationArtifact is the YAML document persisted between the
// calibrate and triangulate modes.
type CalibrationArtifact struct {
	ImageWidth   int              `yaml:"image_width"`
	ImageHeight  int              `yaml:"image_height"`
	BoardCols    int              `yaml:"board_cols"`
	BoardRows    int              `yaml:"board_rows"`
	SquareSizeMM float64          `yaml:"square_size_mm"`
	Left         CameraIntrinsics `yaml:"left"`
	Right        CameraIntrinsics `yaml:"right"`
}

type CalibratorConfig struct {
	BoardCols    int
	BoardRows    int
	SquareSizeMM float64
	ImageWidth   int
	ImageHeight  int
}

// Calibrator runs offline chessboard calibration over paired image
// directories from the two cameras.
type Calibrator struct {
	cfg    CalibratorConfig
	lister port.VideoLister
	logger *zap.Logger
}

func NewCalibrator(cfg CalibratorConfig, lister port.VideoLister, logger *zap.Logger) *Calibrator {
	return &Calibrator{cfg: cfg, lister: lister, logger: logger}
}

var imageFilters = []string{".png", ".jpg", ".jpeg", ".PNG", ".JPG", ".JPEG"}

// Calibrate detects the chessboard in every image pair where both
// cameras see it, computes per-camera intrinsics, and writes the
// calibration artifact to outFile. Errors propagate to the caller; this
// mode has none of the batch loop's tolerance.
func (c *Calibrator) Calibrate(leftDir, rightDir, outFile string) error {
	left := c.lister.List(leftDir, imageFilters)
	right := c.lister.List(rightDir, imageFilters)
	sort.Strings(left)
	sort.Strings(right)

	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	if n == 0 {
		return fmt.Errorf("no calibration images in %s / %s", leftDir, rightDir)
	}

	boardSize := image.Pt(c.cfg.BoardCols, c.cfg.BoardRows)
	var leftViews, rightViews [][]gocv.Point2f
	for i := 0; i < n; i++ {
		lc, lok := findChessboard(left[i], boardSize)
		rc, rok := findChessboard(right[i], boardSize)
		if !lok || !rok {
			c.logger.Debug("chessboard not found in pair",
				zap.String("left", left[i]),
				zap.String("right", right[i]),
			)
			continue
		}
		leftViews = append(leftViews, lc)
		rightViews = append(rightViews, rc)
	}
	if len(leftViews) == 0 {
		return fmt.Errorf("chessboard not visible to both cameras in any image pair")
	}

	leftIntr, err := c.calibrateCamera(leftViews)
	if err != nil {
		return fmt.Errorf("calibrate left camera: %w", err)
	}
	rightIntr, err := c.calibrateCamera(rightViews)
	if err != nil {
		return fmt.Errorf("calibrate right camera: %w", err)
	}

	artifact := CalibrationArtifact{
		ImageWidth:   c.cfg.ImageWidth,
		ImageHeight:  c.cfg.ImageHeight,
		BoardCols:    c.cfg.BoardCols,
		BoardRows:    c.cfg.BoardRows,
		SquareSizeMM: c.cfg.SquareSizeMM,
		Left:         leftIntr,
		Right:        rightIntr,
	}
	data, err := yaml.Marshal(&artifact)
	if err != nil {
		return fmt.Errorf("marshal calibration artifact: %w", err)
	}
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		return fmt.Errorf("write calibration artifact: %w", err)
	}

	c.logger.Info("stereo calibration written",
		zap.String("file", outFile),
		zap.Int("views", len(leftViews)),
		zap.Float64("left_rms", leftIntr.ReprojectionError),
		zap.Float64("right_rms", rightIntr.ReprojectionError),
	)
	return nil
}

func (c *Calibrator) calibrateCamera(views [][]gocv.Point2f) (CameraIntrinsics, error) {
	board := c.boardPoints()

	objPoints := gocv.NewPoints3fVector()
	defer objPoints.Close()
	imgPoints := gocv.NewPoints2fVector()
	defer imgPoints.Close()
	for _, view := range views {
		objPoints.Append(gocv.NewPoint3fVectorFromPoints(board))
		imgPoints.Append(gocv.NewPoint2fVectorFromPoints(view))
	}

	cameraMatrix := gocv.NewMat()
	defer cameraMatrix.Close()
	distCoeffs := gocv.NewMat()
	defer distCoeffs.Close()
	rvecs := gocv.NewMat()
	defer rvecs.Close()
	tvecs := gocv.NewMat()
	defer tvecs.Close()

	rms := gocv.CalibrateCamera(objPoints, imgPoints,
		image.Pt(c.cfg.ImageWidth, c.cfg.ImageHeight),
		&cameraMatrix, &distCoeffs, &rvecs, &tvecs, gocv.CalibFlag(0))

	k := matToRowMajor(cameraMatrix)
	dist := matToRowMajor(distCoeffs)

	lastView := rvecs.Rows() - 1
	rotation := rodrigues(vec3At(rvecs, lastView))
	translation := vec3At(tvecs, lastView)

	return CameraIntrinsics{
		CameraMatrix:      k,
		DistCoeffs:        dist,
		Projection:        projectionMatrix(k, rotation, translation),
		ReprojectionError: rms,
		Views:             len(views),
	}, nil
}

// boardPoints lays the chessboard's inner corners out on the Z=0 plane
// in millimetres.
func (c *Calibrator) boardPoints() []gocv.Point3f {
	pts := make([]gocv.Point3f, 0, c.cfg.BoardCols*c.cfg.BoardRows)
	for row := 0; row < c.cfg.BoardRows; row++ {
		for col := 0; col < c.cfg.BoardCols; col++ {
			pts = append(pts, gocv.Point3f{
				X: float32(float64(col) * c.cfg.SquareSizeMM),
				Y: float32(float64(row) * c.cfg.SquareSizeMM),
				Z: 0,
			})
		}
	}
	return pts
}

func findChessboard(path string, boardSize image.Point) ([]gocv.Point2f, bool) {
	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer img.Close()
	if img.Empty() {
		return nil, false
	}

	corners := gocv.NewMat()
	defer corners.Close()
	found := gocv.FindChessboardCorners(img, boardSize, &corners,
		gocv.CalibCBAdaptiveThresh|gocv.CalibCBNormalizeImage)
	if !found || corners.Rows() != boardSize.X*boardSize.Y {
		return nil, false
	}

	pts := make([]gocv.Point2f, 0, corners.Rows())
	for r := 0; r < corners.Rows(); r++ {
		v := corners.GetVecfAt(r, 0)
		pts = append(pts, gocv.Point2f{X: v[0], Y: v[1]})
	}
	return pts, true
}

func matToRowMajor(m gocv.Mat) []float64 {
	out := make([]float64, 0, m.Rows()*m.Cols())
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			out = append(out, m.GetDoubleAt(r, c))
		}
	}
	return out
}

func vec3At(m gocv.Mat, row int) [3]float64 {
	var v [3]float64
	for i := 0; i < 3; i++ {
		v[i] = m.GetDoubleAt(row, i)
	}
	return v
}

// rodrigues converts a rotation vector to its rotation matrix.
func rodrigues(r [3]float64) [3][3]float64 {
	theta := math.Sqrt(r[0]*r[0] + r[1]*r[1] + r[2]*r[2])
	if theta < 1e-12 {
		return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	kx, ky, kz := r[0]/theta, r[1]/theta, r[2]/theta
	s, c := math.Sin(theta), math.Cos(theta)
	c1 := 1 - c
	return [3][3]float64{
		{c + kx*kx*c1, kx*ky*c1 - kz*s, kx*kz*c1 + ky*s},
		{ky*kx*c1 + kz*s, c + ky*ky*c1, ky*kz*c1 - kx*s},
		{kz*kx*c1 - ky*s, kz*ky*c1 + kx*s, c + kz*kz*c1},
	}
}

// projectionMatrix composes P = K [R|t] as a 3x4 row-major slice.
func projectionMatrix(k []float64, rot [3][3]float64, t [3]float64) []float64 {
	ext := [3][4]float64{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ext[i][j] = rot[i][j]
		}
		ext[i][3] = t[i]
	}

	p := make([]float64, 0, 12)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for x := 0; x < 3; x++ {
				sum += k[i*3+x] * ext[x][j]
			}
			p = append(p, sum)
		}
	}
	return p
}
