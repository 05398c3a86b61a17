package logging

import (
	"context"
	"log/slog"

	"transom/internal/apierr"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for the job or
	// batch identifier a log line belongs to.
	FieldItemID = "item_id"
	// FieldStage is the standardized structured logging key for pipeline phase names.
	FieldStage = "stage"
	// FieldLane is the standardized structured logging key for the owning
	// component (job-engine, batch-engine, asr-worker, reaper, httpapi).
	FieldLane = "lane"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldEventType names the machine-readable event a log line represents.
	FieldEventType = "event_type"
	// FieldErrorHint carries a short suggestion for diagnosing a warning/error.
	FieldErrorHint = "error_hint"
	// FieldErrorCode carries the apierr taxonomy code for a failure, when known.
	FieldErrorCode = "error_code"
	// FieldErrorDetailPath points at a file with the full error detail, when truncated for the console.
	FieldErrorDetailPath = "error_detail_path"
	// FieldProgressStage names the adapter-reported progress stage.
	FieldProgressStage = "progress_stage"
	// FieldProgressPercent is the adapter-reported completion percentage.
	FieldProgressPercent = "progress_percent"
	// FieldProgressMessage is the adapter-reported free-form progress message.
	FieldProgressMessage = "progress_message"
	// FieldProgressETA is the adapter-reported estimated time remaining.
	FieldProgressETA = "progress_eta"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := apierr.EntityIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldItemID, id))
	}
	if stage, ok := apierr.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if component, ok := apierr.ComponentFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldLane, component))
	}
	if rid, ok := apierr.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
