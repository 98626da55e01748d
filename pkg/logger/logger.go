// Package logger builds the zerolog logger used across the engine, the HTTP
// surface and the CLI, and exposes it through the small Logger interface.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	permission = 0664
)

// Logger is the logging interface consumed by the engine. Args are
// alternating key/value pairs.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

type LogBuild struct {
	writer io.Writer
	path   string
	level  zerolog.Level
	pretty bool
}

type LogData struct {
	LogFile *os.File
	Logger  zerolog.Logger
}

func New() *LogBuild {
	return &LogBuild{level: zerolog.InfoLevel}
}

func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

func (build *LogBuild) FromBuffer(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// Level sets the minimum level. Unknown names keep the current level.
func (build *LogBuild) Level(name string) *LogBuild {
	if lvl, err := zerolog.ParseLevel(name); err == nil && name != "" {
		build.level = lvl
	}
	return build
}

// Pretty switches to zerolog's human readable console output.
func (build *LogBuild) Pretty(pretty bool) *LogBuild {
	build.pretty = pretty
	return build
}

func (build *LogBuild) Make() (logData *LogData, err error) {
	logData = new(LogData)
	var writer io.Writer = os.Stdout
	if build.writer != nil {
		writer = build.writer
	}
	if build.path != "" {
		logData.LogFile, err = os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		writer = zerolog.SyncWriter(logData.LogFile)
	}
	if build.pretty {
		writer = zerolog.ConsoleWriter{Out: writer}
	}
	logData.Logger = zerolog.New(writer).Level(build.level).With().Timestamp().Logger()
	return
}

// Close closes the log file, if any.
func (logData *LogData) Close() error {
	if logData.LogFile == nil {
		return nil
	}
	return logData.LogFile.Close()
}

// Handler returns the Logger view of the built zerolog logger.
func (logData *LogData) Handler() Logger {
	return Zerolog(logData.Logger)
}

// Zerolog adapts a zerolog.Logger to Logger.
func Zerolog(l zerolog.Logger) Logger {
	return &zerologHandler{logger: l}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return Zerolog(zerolog.Nop())
}

type zerologHandler struct {
	logger zerolog.Logger
}

func (h *zerologHandler) Error(msg string, args ...any) {
	fields(h.logger.Error(), args).Msg(msg)
}

func (h *zerologHandler) Warn(msg string, args ...any) {
	fields(h.logger.Warn(), args).Msg(msg)
}

func (h *zerologHandler) Info(msg string, args ...any) {
	fields(h.logger.Info(), args).Msg(msg)
}

func (h *zerologHandler) Debug(msg string, args ...any) {
	fields(h.logger.Debug(), args).Msg(msg)
}

func fields(e *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		if err, isErr := args[i+1].(error); isErr {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	if len(args)%2 == 1 {
		e = e.Interface("!BADKEY", args[len(args)-1])
	}
	return e
}
