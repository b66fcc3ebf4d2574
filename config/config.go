// Package config reads the explorer settings from flags and environment.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"flitz/logging"
)

const (
	envStartDir          = "FLITZ_START_DIR"
	envConnectionTimeout = "FLITZ_CONNECTION_TIMEOUT"
	envSearchDebounce    = "FLITZ_SEARCH_DEBOUNCE"
	envShowHidden        = "FLITZ_SHOW_HIDDEN"
	envLogLevel          = "FLITZ_LOG_LEVEL"
	envLogFormat         = "FLITZ_LOG_FORMAT"
	envTrace             = "FLITZ_TRACE"
	envHost              = "FLITZ_HOST"
	envAllowedOrigins    = "FLITZ_ALLOWED_ORIGINS"

	defaultHost              = "127.0.0.1"
	defaultPort              = 1234
	defaultConnectionTimeout = 1   // minutes
	defaultSearchDebounce    = 300 // milliseconds
)

// Config holds all configurable values for the explorer backend.
type Config struct {
	Host              string
	Port              uint
	StartDir          string
	ShowHidden        bool
	ConnectionTimeout time.Duration
	SearchDebounce    time.Duration
	LogLevel          string
	LogFormat         string
	// TraceExporter is "stdout" or empty for no tracing.
	TraceExporter string
	// AllowedOrigins may open explorer sessions besides pages from the same host.
	AllowedOrigins []string
}

// Load parses args (without the program name) on top of environment defaults.
// The first positional argument, if any, overrides the start directory.
func Load(args []string) (*Config, error) {
	cfg := &Config{
		StartDir:          getEnvDir(envStartDir),
		ShowHidden:        getEnvBool(envShowHidden, false),
		ConnectionTimeout: time.Duration(getEnvInt(envConnectionTimeout, defaultConnectionTimeout)) * time.Minute,
		SearchDebounce:    time.Duration(getEnvInt(envSearchDebounce, defaultSearchDebounce)) * time.Millisecond,
		LogLevel:          getEnvString(envLogLevel, "info"),
		LogFormat:         getEnvString(envLogFormat, "json"),
		TraceExporter:     getEnvString(envTrace, ""),
		AllowedOrigins:    getEnvList(envAllowedOrigins),
	}

	fs := flag.NewFlagSet("flitz", flag.ContinueOnError)
	fs.StringVar(&cfg.Host, "host", getEnvString(envHost, defaultHost), "The address to listen on")
	fs.UintVar(&cfg.Port, "port", defaultPort, "The port to listen on")
	fs.BoolVar(&cfg.ShowHidden, "hidden", cfg.ShowHidden, "Show hidden files by default")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() > 0 {
		cfg.StartDir = resolveDir(fs.Arg(0), cfg.StartDir)
	}

	return cfg, nil
}

func getEnvString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// getEnvList splits a comma separated env var, dropping empty items.
func getEnvList(name string) []string {
	var list []string
	for _, item := range strings.Split(os.Getenv(name), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func getEnvInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		logging.Debug("env not set, using default", logging.String("env", name), logging.Int("default", fallback))
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logging.Warn("env is not a valid positive integer, using default",
			logging.String("env", name), logging.String("value", v), logging.Int("default", fallback))
		return fallback
	}
	return n
}

func getEnvBool(name string, fallback bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logging.Warn("env is not a valid boolean, using default", logging.String("env", name), logging.String("value", v))
		return fallback
	}
	return b
}

// getEnvDir returns the directory named by the env var, or the home directory
// when it is unset or not a directory.
func getEnvDir(name string) string {
	if dir := os.Getenv(name); dir == "" {
		logging.Debug("env not set, using home directory", logging.String("env", name))
	} else {
		return resolveDir(dir, homeDir())
	}
	return homeDir()
}

func resolveDir(dir, fallback string) string {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		if abs, err := filepath.Abs(dir); err == nil {
			return abs
		}
		return dir
	}
	logging.Warn("not a valid directory, using fallback", logging.String("dir", dir), logging.String("fallback", fallback))
	return fallback
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		logging.Warn("failed to get user home directory, using cwd", logging.Err(err))
		return "."
	}
	return home
}
