package config

import (
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Missing subtitle policies applied when a video download asked for subtitles
// but the engine did not produce one.
const (
	MissingSubtitleFail    = "fail"
	MissingSubtitleDegrade = "degrade"
)

type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Server   struct {
		Port    int    `mapstructure:"port"`
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Engine struct {
		Binary              string   `mapstructure:"binary"`       // Path to yt-dlp, empty to resolve from PATH
		Format              string   `mapstructure:"format"`       // Format selection expression for video downloads
		MergeFormat         string   `mapstructure:"merge_format"` // Final container for merged video
		IntermediateFormats []string `mapstructure:"intermediate_formats"`
		RestrictFilenames   bool     `mapstructure:"restrict_filenames"`
	} `mapstructure:"engine"`
	Downloads struct {
		OutputDir             string `mapstructure:"output_dir"`
		Timeout               string `mapstructure:"timeout"`  // Go duration string like "30m", empty for none
		MaxWait               string `mapstructure:"max_wait"` // How long a request waits for a free slot
		MaxParallel           int    `mapstructure:"max_parallel"`
		LockDir               string `mapstructure:"lock_dir"`
		MissingSubtitlePolicy string `mapstructure:"missing_subtitle_policy"`
	} `mapstructure:"downloads"`
	Jobs struct {
		Provider string `mapstructure:"provider"` // "memory" or "redis"
		Size     int    `mapstructure:"size"`     // Maximum number of job records kept
		TTL      string `mapstructure:"ttl"`      // Go duration string like "1h", "24h", etc.
		Redis    struct {
			Address  string `mapstructure:"address"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"jobs"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: !isatty.IsTerminal(os.Stdout.Fd()),
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	// Parse and set log level from config
	level := zerolog.InfoLevel // default
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	logger.Debug().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.address", "localhost")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("engine.binary", "")
	v.SetDefault("engine.format", "bestvideo+bestaudio/best")
	v.SetDefault("engine.merge_format", "mp4")
	v.SetDefault("engine.intermediate_formats", []string{"webm", "mkv", "m4a", "mp4", "opus"})
	v.SetDefault("engine.restrict_filenames", false)
	v.SetDefault("downloads.output_dir", ".")
	v.SetDefault("downloads.timeout", "")
	v.SetDefault("downloads.max_wait", "30s")
	v.SetDefault("downloads.max_parallel", 2)
	v.SetDefault("downloads.lock_dir", "")
	v.SetDefault("downloads.missing_subtitle_policy", MissingSubtitleFail)
	v.SetDefault("jobs.provider", "memory")
	v.SetDefault("jobs.size", 1000)
	v.SetDefault("jobs.ttl", "24h")
	v.SetDefault("jobs.redis.address", "localhost:6379")
	v.SetDefault("jobs.redis.db", 0)
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	return load(v)
}

// LoadConfigFile loads configuration from an explicit file path instead of the search paths.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// Environment variable support
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Add specific environment variable for log level
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.Downloads.LockDir == "" {
		config.Downloads.LockDir = os.TempDir()
	}

	return &config, nil
}

// SetConfig replaces the process-wide configuration, e.g. after the CLI loaded an explicit file.
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

func GetConfig() *Config {
	return globalConfig
}

func GetLogger() zerolog.Logger {
	return logger
}

// ParseDuration parses a Go duration string from the config, falling back to def
// and logging a warning when the value is malformed.
func ParseDuration(key, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Str("value", value).Dur("default", def).Msg("Invalid duration, using default")
		return def
	}
	return d
}
