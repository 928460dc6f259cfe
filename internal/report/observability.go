package report

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Event captures lightweight telemetry for one report invocation.
type Event struct {
	ReportType string
	Duration   time.Duration
	Success    bool
	Err        error
}

// Observer receives report-generation events.
type Observer interface {
	ObserveReport(ctx context.Context, event Event)
}

// NoopObserver ignores all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) ObserveReport(context.Context, Event) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver writes report events to the provided writer.
func NewLogObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return &logObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

// NewSlogObserver wraps an existing logger.
func NewSlogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		return NoopObserver{}
	}
	return &logObserver{logger: logger}
}

func (o *logObserver) ObserveReport(ctx context.Context, event Event) {
	attrs := []any{
		"report_type", event.ReportType,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Success,
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.ErrorContext(ctx, "report_generated", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "report_generated", attrs...)
}
