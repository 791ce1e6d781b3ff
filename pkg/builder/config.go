package builder

import (
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/safety"
	"github.com/joeydtaylor/makewaves/pkg/internal/scheduler"
	"github.com/joeydtaylor/makewaves/pkg/internal/synth"
)

// Config gathers everything a tank process needs. Zero values for the
// optional integrations (S3, Kafka, snapshot server) leave them off.
type Config struct {
	Synth  SynthConfig
	Safety SafetyParams
	Grid   TableGrid

	Channel      string
	Margin       time.Duration
	Tolerance    time.Duration
	BufferChunks int
	Seed         int64 // 0 seeds from the wall clock

	LimitTablePath string
	S3Bucket       string
	S3Key          string
	S3Region       string
	S3Endpoint     string
	S3PathStyle    bool

	KafkaBrokers []string
	KafkaTopic   string

	SnapshotAddr     string
	SnapshotInterval time.Duration

	SettingsPath string
	LogLevel     string
}

// DefaultConfig returns the tank defaults with every integration off.
func DefaultConfig() Config {
	return Config{
		Synth:            synth.DefaultConfig(),
		Safety:           safety.DefaultParams(),
		Grid:             safety.DefaultGrid(),
		Margin:           scheduler.DefaultMargin,
		Tolerance:        scheduler.DefaultTolerance,
		BufferChunks:     scheduler.DefaultBufferChunks,
		LimitTablePath:   "settings/limits.parquet",
		S3Key:            "makewaves/limits.parquet",
		KafkaTopic:       "makewaves.runs",
		SnapshotInterval: 100 * time.Millisecond,
		SettingsPath:     DefaultSettingsPath("."),
		LogLevel:         "info",
	}
}

// LoadConfig overlays MAKEWAVES_* environment variables on DefaultConfig.
func LoadConfig() Config {
	c := DefaultConfig()

	c.Synth.SampleRate = EnvFloatOr("MAKEWAVES_SAMPLE_RATE", c.Synth.SampleRate)
	c.Synth.ChunkSize = EnvIntOr("MAKEWAVES_CHUNK_SIZE", c.Synth.ChunkSize)
	c.Synth.ChunkCount = EnvIntOr("MAKEWAVES_CHUNK_COUNT", c.Synth.ChunkCount)
	c.Synth.StrokeCal = EnvFloatOr("MAKEWAVES_STROKE_CAL", c.Synth.StrokeCal)

	c.Safety.MaxHalfStroke = EnvFloatOr("MAKEWAVES_MAX_HALF_STROKE", c.Safety.MaxHalfStroke)
	c.Safety.FlapHeight = EnvFloatOr("MAKEWAVES_FLAP_HEIGHT", c.Safety.FlapHeight)
	c.Safety.Depth = EnvFloatOr("MAKEWAVES_DEPTH", c.Safety.Depth)
	c.Synth.FlapHeight = c.Safety.FlapHeight
	c.Synth.Depth = c.Safety.Depth

	c.Channel = EnvOr("MAKEWAVES_CHANNEL", c.Channel)
	c.Margin = EnvDurationOr("MAKEWAVES_MARGIN", c.Margin)
	c.Tolerance = EnvDurationOr("MAKEWAVES_TOLERANCE", c.Tolerance)
	c.BufferChunks = EnvIntOr("MAKEWAVES_BUFFER_CHUNKS", c.BufferChunks)
	c.Seed = int64(EnvIntOr("MAKEWAVES_SEED", int(c.Seed)))

	c.LimitTablePath = EnvOr("MAKEWAVES_LIMIT_TABLE", c.LimitTablePath)
	c.S3Bucket = EnvOr("MAKEWAVES_S3_BUCKET", c.S3Bucket)
	c.S3Key = EnvOr("MAKEWAVES_S3_KEY", c.S3Key)
	c.S3Region = EnvOr("MAKEWAVES_S3_REGION", c.S3Region)
	c.S3Endpoint = EnvOr("MAKEWAVES_S3_ENDPOINT", c.S3Endpoint)
	c.S3PathStyle = EnvBoolOr("MAKEWAVES_S3_PATH_STYLE", c.S3Endpoint != "")

	c.KafkaBrokers = EnvListOr("MAKEWAVES_KAFKA_BROKERS", c.KafkaBrokers)
	c.KafkaTopic = EnvOr("MAKEWAVES_KAFKA_TOPIC", c.KafkaTopic)

	c.SnapshotAddr = EnvOr("MAKEWAVES_SNAPSHOT_ADDR", c.SnapshotAddr)
	c.SnapshotInterval = EnvDurationOr("MAKEWAVES_SNAPSHOT_INTERVAL", c.SnapshotInterval)

	c.SettingsPath = EnvOr("MAKEWAVES_SETTINGS", c.SettingsPath)
	c.LogLevel = EnvOr("MAKEWAVES_LOG_LEVEL", c.LogLevel)
	return c
}
