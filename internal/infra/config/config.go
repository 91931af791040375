package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	VideoDir         string   `env:"VIDEO_DIR"          envDefault:"static/videos"`
	RecordDir        string   `env:"RECORD_DIR"         envDefault:"static/video-info"`
	VideoExtensions  []string `env:"VIDEO_EXTENSIONS"   envDefault:".mp4,.MP4"`
	RecordExtensions []string `env:"RECORD_EXTENSIONS"  envDefault:".json,.JSON"`
	RecordPrefix     string   `env:"RECORD_PREFIX"      envDefault:"DE_"`

	ParallelPairs bool `env:"PARALLEL_PAIRS" envDefault:"false"`

	MotionThreshold float64 `env:"MOTION_THRESHOLD"  envDefault:"0.01"`
	MotionPixelDiff float64 `env:"MOTION_PIXEL_DIFF" envDefault:"25"`
	MotionCooldown  int     `env:"MOTION_COOLDOWN"   envDefault:"15"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:""`

	MinIOEndpoint     string `env:"MINIO_ENDPOINT"      envDefault:""`
	MinIOAccessKey    string `env:"MINIO_ACCESS_KEY"    envDefault:"minioadmin"`
	MinIOSecretKey    string `env:"MINIO_SECRET_KEY"    envDefault:"minioadmin"`
	MinIOUseSSL       bool   `env:"MINIO_USE_SSL"       envDefault:"false"`
	MinIORecordBucket string `env:"MINIO_RECORD_BUCKET" envDefault:"video-records"`

	RabbitMQURL         string `env:"RABBITMQ_URL"          envDefault:""`
	RabbitMQExchange    string `env:"RABBITMQ_EXCHANGE"     envDefault:"finwatch.video"`
	RabbitMQStatusQueue string `env:"RABBITMQ_STATUS_QUEUE" envDefault:"pair.status"`

	SMTPHost       string `env:"SMTP_HOST"       envDefault:"mailhog"`
	SMTPPort       int    `env:"SMTP_PORT"       envDefault:"1025"`
	SMTPFrom       string `env:"SMTP_FROM"       envDefault:"noreply@finwatch.local"`
	NotificationTo string `env:"NOTIFICATION_TO" envDefault:""`

	CalibrationFile   string  `env:"CALIBRATION_FILE"     envDefault:"stereo_calibration.yaml"`
	MeasurePointsFile string  `env:"MEASURE_POINTS_FILE"  envDefault:"calib_config/measure_points.yaml"`
	TriangulationOut  string  `env:"TRIANGULATION_OUT"    envDefault:"calib_config/triangulated_points.yaml"`
	BoardCols         int     `env:"CALIB_BOARD_COLS"     envDefault:"9"`
	BoardRows         int     `env:"CALIB_BOARD_ROWS"     envDefault:"6"`
	SquareSizeMM      float64 `env:"CALIB_SQUARE_SIZE_MM" envDefault:"25"`
	ImageWidth        int     `env:"CALIB_IMAGE_WIDTH"    envDefault:"1920"`
	ImageHeight       int     `env:"CALIB_IMAGE_HEIGHT"   envDefault:"1440"`

	MetricsPort    int    `env:"METRICS_PORT"    envDefault:"8083"`
	JaegerEndpoint string `env:"JAEGER_ENDPOINT" envDefault:"http://jaeger:4318/v1/traces"`
	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
