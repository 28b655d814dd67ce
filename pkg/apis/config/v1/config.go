package v1

// ClockwiseConfig is the optional YAML configuration file. Values set here
// override command line flag defaults.
type ClockwiseConfig struct {
	Server ServerConfig `yaml:"server"`
	Limits LimitsConfig `yaml:"limits"`
}

type ServerConfig struct {
	ListenAddr  string `yaml:"listenAddr"`
	MetricsAddr string `yaml:"metricsAddr"`
	RedisURL    string `yaml:"redisURL"`
}

// LimitsConfig holds write-time plausibility bounds for punches and the
// bulk import batch cap. Zero values fall back to the defaults below.
type LimitsConfig struct {
	MaxShiftMinutes  int `yaml:"maxShiftMinutes"`
	MinShiftMinutes  int `yaml:"minShiftMinutes"`
	ImportBatchLimit int `yaml:"importBatchLimit"`
}

const (
	// DefaultMaxShiftMinutes caps a single shift at 18 hours. Punch pairs
	// implying a longer span are rejected at write time.
	DefaultMaxShiftMinutes = 18 * 60
	// DefaultMinShiftMinutes rejects a clock-out in the same minute as its
	// clock-in.
	DefaultMinShiftMinutes = 1
	// DefaultImportBatchLimit bounds a single bulk import request.
	DefaultImportBatchLimit = 5000
)

func (c *LimitsConfig) ApplyDefaults() {
	if c.MaxShiftMinutes == 0 {
		c.MaxShiftMinutes = DefaultMaxShiftMinutes
	}
	if c.MinShiftMinutes == 0 {
		c.MinShiftMinutes = DefaultMinShiftMinutes
	}
	if c.ImportBatchLimit == 0 {
		c.ImportBatchLimit = DefaultImportBatchLimit
	}
}
