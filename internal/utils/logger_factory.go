package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	jsonZapEncodingStringConstant        = "json"
	consoleZapEncodingStringConstant     = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	runLogTimestampLayoutConstant        = "2006-01-02T15:04:05Z07:00"
	runLogLevelTemplateConstant          = "[%s] -"
	runLogMessageKeyConstant             = "message"
	runLogLevelKeyConstant               = "level"
	runLogTimestampKeyConstant           = "timestamp"
	runLogConsoleSeparatorConstant       = " "
	runLogFileOpenErrorTemplateConstant  = "unable to open log destination %s: %w"
	runLogDirectoryPermissionsConstant   = 0o755
	runLogFilePermissionsConstant        = 0o644
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// LoggerOutputs bundles the loggers produced for an application run.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logFormatEncodingMapping = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLoggerOutputs produces the diagnostic logger honoring the requested log level and format.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (LoggerOutputs, error) {
	diagnosticLogger, creationError := factory.CreateLogger(requestedLogLevel, requestedLogFormat)
	if creationError != nil {
		return LoggerOutputs{}, creationError
	}
	return LoggerOutputs{DiagnosticLogger: diagnosticLogger}, nil
}

// CreateLogger produces a zap.Logger honoring the requested log level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoding, formatExists := logFormatEncodingMapping[requestedLogFormat]
	if !formatExists {
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLogLevel)
	configuration.Encoding = encoding

	logger, buildError := configuration.Build()
	if buildError != nil {
		return nil, buildError
	}

	return logger, nil
}

// CreateRunLogger builds the run logger writing INFO records to the info
// stream and ERROR records to the error stream, each line formatted as
// "<ISO-8601 timestamp> [<LEVEL>] - <message>".
func (factory *LoggerFactory) CreateRunLogger(infoWriter io.Writer, errorWriter io.Writer) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(runLogEncoderConfiguration())

	infoCore := zapcore.NewCore(
		encoder,
		zapcore.AddSync(NewFlushingWriter(infoWriter)),
		zap.LevelEnablerFunc(func(level zapcore.Level) bool {
			return level == zapcore.InfoLevel
		}),
	)
	errorCore := zapcore.NewCore(
		encoder,
		zapcore.AddSync(NewFlushingWriter(errorWriter)),
		zap.LevelEnablerFunc(func(level zapcore.Level) bool {
			return level >= zapcore.ErrorLevel
		}),
	)

	return zap.New(zapcore.NewTee(infoCore, errorCore))
}

func runLogEncoderConfiguration() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:       runLogMessageKeyConstant,
		LevelKey:         runLogLevelKeyConstant,
		TimeKey:          runLogTimestampKeyConstant,
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: runLogConsoleSeparatorConstant,
		EncodeTime: func(timestamp time.Time, encoder zapcore.PrimitiveArrayEncoder) {
			encoder.AppendString(timestamp.Format(runLogTimestampLayoutConstant))
		},
		EncodeLevel: func(level zapcore.Level, encoder zapcore.PrimitiveArrayEncoder) {
			encoder.AppendString(fmt.Sprintf(runLogLevelTemplateConstant, level.CapitalString()))
		},
	}
}

// ResolveRunLogWriter opens an append-only log destination, falling back to
// the supplied writer when the path is empty.
func ResolveRunLogWriter(destinationPath string, fallbackWriter io.Writer) (io.Writer, error) {
	if len(destinationPath) == 0 {
		return fallbackWriter, nil
	}

	directoryPath := filepath.Dir(destinationPath)
	if directoryError := os.MkdirAll(directoryPath, runLogDirectoryPermissionsConstant); directoryError != nil {
		return nil, fmt.Errorf(runLogFileOpenErrorTemplateConstant, destinationPath, directoryError)
	}

	logFile, openError := os.OpenFile(destinationPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, runLogFilePermissionsConstant)
	if openError != nil {
		return nil, fmt.Errorf(runLogFileOpenErrorTemplateConstant, destinationPath, openError)
	}

	return logFile, nil
}
