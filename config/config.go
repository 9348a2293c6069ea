package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "M300_"

type Serial struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type Preview struct {
	SampleRate int `yaml:"sample_rate"`
	// gain in decibels applied to the square wave
	Volume float64 `yaml:"volume"`
}

type S3 struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

type Config struct {
	Speed       float64       `yaml:"speed"`
	Secondary   bool          `yaml:"secondary"`
	Dialect     string        `yaml:"dialect"`
	Templates   string        `yaml:"templates"`
	Listen      string        `yaml:"listen"`
	OutputDir   string        `yaml:"output_dir"`
	AutoCompile time.Duration `yaml:"auto_compile"`
	SessionIdle time.Duration `yaml:"session_idle"`
	MaxSessions int           `yaml:"max_sessions"`
	LogLevel    string        `yaml:"log_level"`
	SentryDSN   string        `yaml:"sentry_dsn"`
	Serial      Serial        `yaml:"serial"`
	Preview     Preview       `yaml:"preview"`
	S3          S3            `yaml:"s3"`
}

func Default() Config {
	return Config{
		Speed:       1,
		Dialect:     "marlin",
		Listen:      ":8080",
		OutputDir:   ".",
		SessionIdle: 30 * time.Minute,
		MaxSessions: 1000,
		LogLevel:    "info",
		Serial:      Serial{Port: "/dev/ttyUSB0", Baud: 115200},
		Preview:     Preview{SampleRate: 44100, Volume: -25},
		S3:          S3{Region: "us-east-1"},
	}
}

// Load builds the configuration from defaults, then the yaml file at path (if
// any), then .env and the environment.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		dat, err := os.ReadFile(path)
		if err != nil {
			return c, errors.Wrapf(err, "could not read config file %v", path)
		}
		if err := yaml.Unmarshal(dat, &c); err != nil {
			return c, errors.Wrapf(err, "could not parse config file %v", path)
		}
	}
	// a missing .env is fine
	_ = godotenv.Load()
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return c, err
	}
	return c, nil
}

type lookupFunc = func(key string) (string, bool)

func (c *Config) ApplyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var err error
	parse := func(name string, set func(string) error) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" && err == nil {
			if e := set(v); e != nil {
				err = errors.Wrapf(e, "invalid %v%v", EnvPrefix, name)
			}
		}
	}

	parse("SPEED", func(v string) (e error) { c.Speed, e = strconv.ParseFloat(v, 64); return })
	parse("SECONDARY", func(v string) (e error) { c.Secondary, e = strconv.ParseBool(v); return })
	str("DIALECT", &c.Dialect)
	str("TEMPLATES", &c.Templates)
	str("LISTEN", &c.Listen)
	str("OUTPUT_DIR", &c.OutputDir)
	parse("AUTO_COMPILE", func(v string) (e error) { c.AutoCompile, e = time.ParseDuration(v); return })
	parse("SESSION_IDLE", func(v string) (e error) { c.SessionIdle, e = time.ParseDuration(v); return })
	parse("MAX_SESSIONS", func(v string) (e error) { c.MaxSessions, e = strconv.Atoi(v); return })
	str("LOG_LEVEL", &c.LogLevel)
	str("SENTRY_DSN", &c.SentryDSN)
	str("SERIAL_PORT", &c.Serial.Port)
	parse("SERIAL_BAUD", func(v string) (e error) { c.Serial.Baud, e = strconv.Atoi(v); return })
	parse("PREVIEW_SAMPLE_RATE", func(v string) (e error) { c.Preview.SampleRate, e = strconv.Atoi(v); return })
	parse("PREVIEW_VOLUME", func(v string) (e error) { c.Preview.Volume, e = strconv.ParseFloat(v, 64); return })
	str("S3_REGION", &c.S3.Region)
	str("S3_ENDPOINT", &c.S3.Endpoint)
	return err
}
