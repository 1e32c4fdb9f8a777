package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging across syntaxis.
const (
	// Identity and context
	FieldRequestID    = "request_id"
	FieldGenerationID = "generation_id"
	FieldComponent    = "component"

	// Templates
	FieldTemplate = "template"
	FieldNotation = "notation"
	FieldGroup    = "group"
	FieldToken    = "token"
	FieldPOS      = "pos"
	FieldCategory = "category"
	FieldFeatures = "features"
	FieldPrevious = "previous"
	FieldNew      = "new"

	// Generation
	FieldAttempt     = "attempt"
	FieldMaxAttempts = "max_attempts"
	FieldWildcards   = "wildcards"
	FieldLemma       = "lemma"
	FieldForm        = "form"

	// Operations
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldCount      = "count"
	FieldError      = "error"

	// Files and network
	FieldFile    = "file"
	FieldAddress = "address"
	FieldVersion = "version"
)

type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	componentKey contextKey = "logger_component"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}
	return fields
}

// FromContext decorates base with the fields carried by ctx.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named child of the global logger.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
