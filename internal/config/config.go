package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ekgmon/ekgmon/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPort           = "/dev/ttyUSB0"
	DefaultBaud           = 250000
	DefaultReadTimeout    = time.Second
	DefaultCapacity       = 2000
	DefaultRedrawInterval = 50 * time.Millisecond
	DefaultFormat         = "json"
	DefaultSource         = "serial"
	DefaultSimRate        = 250
	DefaultDisplay        = "tui"
	DefaultLogLevel       = "info"

	configName = "ekgmon.conf"
	envConfig  = "EKGMON_CONFIG"
)

type Config struct {
	Port           string
	Baud           int
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	Capacity       int
	RedrawInterval time.Duration `mapstructure:"redraw_interval"`
	Format         string
	Channel        int
	SkipSamples    int `mapstructure:"skip_samples"`
	Source         string
	SimRate        int `mapstructure:"sim_rate"`
	Display        string
	LogLevel       string `mapstructure:"log_level"`
	Telemetry      bool
	Database       string
}

// Load reads configuration from defaults, an optional TOML file (explicit
// path via EKGMON_CONFIG, otherwise searched in /etc and the user config
// dir), and command-line flags. Flags override file values. Load builds its
// own FlagSet and viper instance so it can be called repeatedly.
func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	// Unknown flags are tolerated so test binaries can pass their own.
	fs.ParseErrorsWhitelist.UnknownFlags = true
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	if path := os.Getenv(envConfig); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "ekgmon"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errFactory.Wrap(errors.ErrReadConfig, err)
			}
		}
	}

	// Flags set on the command line override file values.
	fs.Visit(func(f *pflag.Flag) {
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if config.Database == "" {
		config.Database = defaultDatabasePath()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("baud", DefaultBaud)
	v.SetDefault("read_timeout", DefaultReadTimeout)
	v.SetDefault("capacity", DefaultCapacity)
	v.SetDefault("redraw_interval", DefaultRedrawInterval)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("channel", 0)
	v.SetDefault("skip_samples", 0)
	v.SetDefault("source", DefaultSource)
	v.SetDefault("sim_rate", DefaultSimRate)
	v.SetDefault("display", DefaultDisplay)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", "")
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("ekgmon", pflag.ContinueOnError)
	fs.String("port", DefaultPort, "serial device path")
	fs.Int("baud", DefaultBaud, "serial symbol rate")
	fs.Duration("read-timeout", DefaultReadTimeout, "per-read timeout")
	fs.Int("capacity", DefaultCapacity, "sample window capacity")
	fs.Duration("redraw-interval", DefaultRedrawInterval, "minimum time between redraws")
	fs.String("format", DefaultFormat, "line format: json, hex or plain")
	fs.Int("channel", 0, "channel index for json frames")
	fs.Int("skip-samples", 0, "initial decoded samples to discard")
	fs.String("source", DefaultSource, "sample source: serial or sim")
	fs.Int("sim-rate", DefaultSimRate, "simulator samples per second")
	fs.String("display", DefaultDisplay, "display: tui or console")
	fs.String("log-level", DefaultLogLevel, "log level: debug, info, warning or error")
	fs.Bool("telemetry", false, "enable session telemetry store")
	fs.String("database", "", "telemetry database path")

	return fs
}

// Validate checks the loaded configuration and returns a coded error for
// the first invalid value found.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Port == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "port must not be empty")
	}
	if c.Baud <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, map[string]any{"baud": c.Baud})
	}
	if c.ReadTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, map[string]any{"read_timeout": c.ReadTimeout})
	}
	if c.Capacity <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, map[string]any{"capacity": c.Capacity})
	}
	if c.RedrawInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, map[string]any{"redraw_interval": c.RedrawInterval})
	}
	if !validFormat(c.Format) {
		return errFactory.WithData(errors.ErrInvalidConfig, map[string]any{"format": c.Format})
	}
	if c.Channel < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, map[string]any{"channel": c.Channel})
	}
	if c.SkipSamples < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, map[string]any{"skip_samples": c.SkipSamples})
	}
	if c.Source != "serial" && c.Source != "sim" {
		return errFactory.WithData(errors.ErrInvalidConfig, map[string]any{"source": c.Source})
	}
	if c.SimRate <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, map[string]any{"sim_rate": c.SimRate})
	}
	if c.Display != "tui" && c.Display != "console" {
		return errFactory.WithData(errors.ErrInvalidConfig, map[string]any{"display": c.Display})
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Telemetry && c.Database == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "telemetry enabled but no database path")
	}

	return nil
}

func validFormat(format string) bool {
	switch format {
	case "json", "hex", "plain":
		return true
	default:
		return false
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ekgmon.db"
	}

	return filepath.Join(home, ".local", "share", "ekgmon", "ekgmon.db")
}
