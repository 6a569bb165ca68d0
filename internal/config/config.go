// Package config resolves server settings from defaults, an optional .env
// file and LJT_* environment variables. Command-line flags are applied on
// top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	IP           string
	Port         int
	HTTPAddr     string // empty disables the admin server
	Static       bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxFrame     int
	Seed         int64 // zero seeds from the clock
	LogLevel     string
	LogDev       bool
}

func Default() Config {
	return Config{
		IP:           "0.0.0.0",
		Port:         8080,
		HTTPAddr:     "127.0.0.1:8081",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		MaxFrame:     10 << 20,
		LogLevel:     "info",
	}
}

// GameAddr is the listen address of the game server.
func (c Config) GameAddr() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

// Load reads envFile, if it exists, into the process environment and
// resolves the settings. Every malformed variable is reported.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv resolves the settings through lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	var errs error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	parse := func(key string, fn func(string) error) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		if err := fn(v); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	str("LJT_IP", &c.IP)
	str("LJT_HTTP", &c.HTTPAddr)
	str("LJT_LOG_LEVEL", &c.LogLevel)
	parse("LJT_PORT", func(v string) (err error) { c.Port, err = strconv.Atoi(v); return })
	parse("LJT_STATIC", func(v string) (err error) { c.Static, err = strconv.ParseBool(v); return })
	parse("LJT_READ_TIMEOUT", func(v string) (err error) { c.ReadTimeout, err = time.ParseDuration(v); return })
	parse("LJT_WRITE_TIMEOUT", func(v string) (err error) { c.WriteTimeout, err = time.ParseDuration(v); return })
	parse("LJT_MAX_FRAME", func(v string) (err error) { c.MaxFrame, err = strconv.Atoi(v); return })
	parse("LJT_SEED", func(v string) (err error) { c.Seed, err = strconv.ParseInt(v, 10, 64); return })
	parse("LJT_LOG_DEV", func(v string) (err error) { c.LogDev, err = strconv.ParseBool(v); return })

	return c, multierr.Append(errs, c.Validate())
}

func (c Config) Validate() error {
	var errs error
	if c.Port < 0 || c.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxFrame <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("max frame must be positive, got %d", c.MaxFrame))
	}
	if c.ReadTimeout < 0 {
		errs = multierr.Append(errs, fmt.Errorf("read timeout must not be negative, got %s", c.ReadTimeout))
	}
	if c.WriteTimeout < 0 {
		errs = multierr.Append(errs, fmt.Errorf("write timeout must not be negative, got %s", c.WriteTimeout))
	}
	return errs
}
