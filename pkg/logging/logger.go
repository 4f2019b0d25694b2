package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Options controls how a logger is built.
type Options struct {
	Name   string
	Level  string
	JSON   bool
	Output io.Writer
}

// NewLogger creates a new hclog logger with standard settings
func NewLogger(opts Options) hclog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	// Support log file output
	if logPath := os.Getenv("STYRENE_LOG_PATH"); logPath != "" {
		if file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			output = file
		}
	}

	// Add prefix for non-JSON output
	if !opts.JSON {
		output = NewPrefixWriter("🪟 ", output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      hclog.LevelFromString(opts.Level),
		JSONFormat: opts.JSON,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// ResolveLevel picks the effective log level and reports where it came from.
// Precedence: CLI flag, STYRENE_LOG_LEVEL, configured value, "info".
// A "json" or "json:<level>" value switches to JSON output.
func ResolveLevel(cliLevel, configLevel string) (level string, jsonFormat bool, source string) {
	switch {
	case cliLevel != "":
		level, source = cliLevel, "CLI --log-level"
	case os.Getenv("STYRENE_LOG_LEVEL") != "":
		level, source = os.Getenv("STYRENE_LOG_LEVEL"), "STYRENE_LOG_LEVEL"
	case configLevel != "":
		level, source = configLevel, "config"
	default:
		level, source = "info", "default"
	}

	if strings.HasPrefix(level, "json") {
		jsonFormat = true
		parts := strings.SplitN(level, ":", 2)
		if len(parts) > 1 && parts[1] != "" {
			level = parts[1]
		} else {
			level = "info"
		}
	}
	return level, jsonFormat, source
}
