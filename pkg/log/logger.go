// Package log configures the process-wide structured logger for the training
// workflow. Output is JSON on stdout via log/slog so the pipeline's log lines
// can be collected next to the tracking server's own logs. Errors logged with
// ErrAttr surface their cockroachdb/errors stack trace under a stacktrace
// attribute; library warnings are routed through a zerolog sink.
package log

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	"github.com/probloan/loantrain/pkg/errors"
)

// SetupLogger installs the default slog JSON logger at the given level and
// routes warnings to a structured zerolog sink.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		Level: ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))

	warnLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(ZerologWarnFunc(warnLogger))
}

// ZerologWarnFunc adapts a zerolog logger into the warning sink the errors
// package calls. Warnings implementing zerolog's object marshaller are
// emitted with their structured fields.
func ZerologWarnFunc(logger zerolog.Logger) func(warning error) {
	return func(warning error) {
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			logger.Warn().EmbedObject(obj).Msg(warning.Error())
			return
		}
		logger.Warn().Err(warning).Msg("")
	}
}

// ToLogLevel maps a level name to its slog level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	// ErrAttrKey is the attribute key errors are logged under.
	ErrAttrKey = "error"

	// StacktraceAttrKey carries the stack trace extracted from errors logged
	// under ErrAttrKey.
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// Attribute keys shared across the workflow's log lines.
const (
	// DatasetKey identifies the logical dataset being loaded.
	DatasetKey = "dataset.name"

	// ModelNameKey identifies the registered model being trained.
	ModelNameKey = "model.name"

	// RunIDKey identifies a tracking-server run.
	RunIDKey = "run.id"

	// MetricKey carries a scalar evaluation metric value.
	MetricKey = "metric.valid_roc_auc"

	// SamplesKey is the number of rows in the data being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns in the data.
	FeaturesKey = "data.features"
)
