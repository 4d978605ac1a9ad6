package logging

import (
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, name string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", name, sessionStart.Format("20060102_150405")),
	)
}

// RotatingFile returns a size-rotated log file for this session.
func RotatingFile(logsDir, name string, sessionStart time.Time) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   LogFilePath(logsDir, name, sessionStart),
		MaxSize:    32, // MB
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}
}
