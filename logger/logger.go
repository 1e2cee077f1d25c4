// Package logger provides centralized logging for the application.
// File: logger/logger.go
package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ------------------- global loggers -------------------

// four logger levels accessible throughout the application
var (
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger
	Debug *log.Logger
)

const logFlags = log.Ldate | log.Ltime | log.Lshortfile

// Options controls where InitLogger sends output.
type Options struct {
	Dir      string // directory for the timestamped log file; empty disables the file
	ToStdout bool   // also write to stdout (the terminal viewer turns this off)
}

// ------------------- logger initialization -------------------

// InitLogger creates or reinitializes the logging system. It:
// - Ensures opts.Dir exists when set.
// - Creates a timestamped log file in that directory.
// - Writes logs to the file and, when opts.ToStdout is set, to stdout as well.
// - Configures separate loggers (Info, Warn, Error, Debug) with consistent prefixes & flags.
func InitLogger(opts Options) error {
	var writers []io.Writer
	if opts.ToStdout {
		writers = append(writers, os.Stdout)
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0700); err != nil {
			return err
		}
		logFileName := filepath.Join(opts.Dir, time.Now().Format("2006-01-02_15-04-05")+".log")
		file, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}

	out := io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}
	setOutput(out)
	return nil
}

// SetLogLevel adjusts the Debug logger’s output depending on environment.
// Production discards debug output entirely.
func SetLogLevel(env string) {
	if env == "production" {
		Debug.SetOutput(io.Discard)
	}
}

func setOutput(w io.Writer) {
	Info = log.New(w, "INFO: ", logFlags)
	Warn = log.New(w, "WARN: ", logFlags)
	Error = log.New(w, "ERROR: ", logFlags)
	Debug = log.New(w, "DEBUG: ", logFlags)
}

// init gives every package usable loggers before main calls InitLogger.
// They go to stderr only so tests and library users never create log files.
func init() {
	setOutput(os.Stderr)
}
