package logging

import (
	"os"
	"strings"

	"github.com/phuslu/log"
)

// New builds the process logger. Console output, level from config.
func New(level string) log.Logger {
	return log.Logger{
		Level:      parseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			ColorOutput:    log.IsTerminal(os.Stderr.Fd()),
			EndWithMessage: true,
		},
	}
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
