// Package cli implements the forumd command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"forumd/internal/common/fsutil"
	"forumd/internal/config"
)

// Options are the persistent flags shared by every command.
type Options struct {
	ConfigPath     string
	Addr           string
	DataFile       string
	LogLevel       string
	LogPretty      bool
	M2MChanged     bool
	CORSOrigins    string
	RequestTimeout time.Duration

	// set records which flags were given on the command line.
	set map[string]bool
}

func defaultOptions() *Options {
	return &Options{
		ConfigPath:  envStr("FORUMD_CONFIG", ""),
		Addr:        envStr("FORUMD_ADDR", ":8080"),
		DataFile:    envStr("FORUMD_DATA_FILE", ""),
		LogLevel:    envStr("FORUMD_LOG_LEVEL", "info"),
		LogPretty:   envBool("FORUMD_LOG_PRETTY", false),
		M2MChanged:  envBool("FORUMD_M2M_CHANGED", false),
		CORSOrigins: envStr("FORUMD_CORS_ORIGINS", ""),
		set:         map[string]bool{},
	}
}

// resolve loads the config file, if any, and lets flags and environment
// override it. Values from the file win over flag defaults.
func (o *Options) resolve() (config.Config, error) {
	var cfg config.Config
	if o.ConfigPath != "" {
		c, err := config.Load(o.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	override := func(flag string, fromFile bool) bool { return o.set[flag] || !fromFile }
	if override("addr", cfg.Addr != "") {
		cfg.Addr = o.Addr
	}
	if override("data-file", cfg.DataFile != "") {
		cfg.DataFile = o.DataFile
	}
	if override("log-level", cfg.LogLevel != "") {
		cfg.LogLevel = o.LogLevel
	}
	if o.set["m2m-changed"] || o.M2MChanged {
		cfg.M2MChanged = o.M2MChanged
	}
	if origins := splitCSV(o.CORSOrigins); len(origins) > 0 {
		cfg.CORS.Enabled = true
		cfg.CORS.Origins = origins
	}
	cfg = cfg.WithDefaults()
	var err error
	if cfg.DataFile, err = fsutil.ExpandHome(cfg.DataFile); err != nil {
		return cfg, err
	}
	if cfg.FixturesDir, err = fsutil.ExpandHome(cfg.FixturesDir); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger builds the process logger. Unknown levels fall back to info.
func newLogger(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "forumd").Logger()
}

// MainWithArgs runs the command line and returns the process exit code.
func MainWithArgs(args []string) int {
	root := buildRootCmdWith(defaultOptions())
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

// Main returns an exit code (0 for success, non-zero on error) for use by cmd/forumd.
func Main() int { return MainWithArgs(os.Args[1:]) }

// Env helpers
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	s := strings.ToLower(v)
	return s == "1" || s == "true" || s == "yes"
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
