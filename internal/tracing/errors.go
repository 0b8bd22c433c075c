package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType classifies recorded errors for filtering in the trace backend.
type ErrorType string

const (
	ErrorTypeHTTP        ErrorType = "http"
	ErrorTypeDB          ErrorType = "db"
	ErrorTypeRedis       ErrorType = "redis"
	ErrorTypeRabbitMQ    ErrorType = "rabbitmq"
	ErrorTypeObjectStore ErrorType = "object_store"
	ErrorTypeGeneration  ErrorType = "generation"
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeInternal    ErrorType = "internal"
)

// RecordError records err on span with a uniform type attribute and marks
// the span as failed.
func RecordError(span trace.Span, err error, errorType ErrorType) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", err.Error()),
	)
	span.SetStatus(codes.Error, err.Error())
}

// RecordErrorWithInfo is RecordError with extra attributes attached.
func RecordErrorWithInfo(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	attrs := append([]attribute.KeyValue{
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", err.Error()),
	}, attributes...)
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Error, err.Error())
}
