package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	dbTracerName      = "eventlens/db"
	serviceTracerName = "eventlens/services"
)

type contextKey string

const (
	eventIDKey   contextKey = "observability.event_id"
	deviceIDKey  contextKey = "observability.device_id"
	requestIDKey contextKey = "observability.request_id"
	routeKey     contextKey = "observability.route"
)

// Span is the application-level tracing span contract.
type Span interface {
	End()
	RecordError(error)
	SetAttributes(...attribute.KeyValue)
}

type otelSpan struct {
	inner trace.Span
}

// StartDBSpan starts a database tracing span for one named query.
func StartDBSpan(ctx context.Context, system, queryName, operation string) (context.Context, Span) {
	queryName = strings.TrimSpace(queryName)
	if queryName == "" {
		queryName = "unknown"
	}
	attrs := []attribute.KeyValue{
		attribute.String("db.system.name", system),
		attribute.String("db.query_name", queryName),
		attribute.String("db.operation", strings.TrimSpace(operation)),
	}
	attrs = append(attrs, quotaKeyAttributes(ctx)...)

	ctx, span := otel.Tracer(dbTracerName).Start(ctx, "db."+queryName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, otelSpan{inner: span}
}

// StartServiceSpan starts an internal span around one pipeline operation.
func StartServiceSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := otel.Tracer(serviceTracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(quotaKeyAttributes(ctx)...),
	)
	return ctx, otelSpan{inner: span}
}

// WithQuotaKey enriches context and current span with the (event, device) pair.
func WithQuotaKey(ctx context.Context, eventID, deviceID string) context.Context {
	eventID = strings.TrimSpace(eventID)
	deviceID = strings.TrimSpace(deviceID)
	if eventID != "" {
		ctx = context.WithValue(ctx, eventIDKey, eventID)
	}
	if deviceID != "" {
		ctx = context.WithValue(ctx, deviceIDKey, deviceID)
	}
	if attrs := quotaKeyAttributes(ctx); len(attrs) > 0 {
		trace.SpanFromContext(ctx).SetAttributes(attrs...)
	}
	return ctx
}

// WithRequestMetadata enriches context and current span with request metadata.
func WithRequestMetadata(ctx context.Context, requestID, route string) context.Context {
	requestID = strings.TrimSpace(requestID)
	route = strings.TrimSpace(route)
	attrs := make([]attribute.KeyValue, 0, 2)
	if requestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, requestID)
		attrs = append(attrs, attribute.String("request.id", requestID))
	}
	if route != "" {
		ctx = context.WithValue(ctx, routeKey, route)
		attrs = append(attrs, attribute.String("http.route", route))
	}
	if len(attrs) > 0 {
		trace.SpanFromContext(ctx).SetAttributes(attrs...)
	}
	return ctx
}

// EventIDFromContext extracts the event id of the current quota key.
func EventIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, eventIDKey)
}

// DeviceIDFromContext extracts the device id of the current quota key.
func DeviceIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, deviceIDKey)
}

// RequestIDFromContext extracts request id.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

// RouteFromContext extracts normalized route path.
func RouteFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, routeKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	value, ok := ctx.Value(key).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func quotaKeyAttributes(ctx context.Context) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if eventID, ok := EventIDFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("eventlens.event_id", eventID))
	}
	if deviceID, ok := DeviceIDFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("eventlens.device_id", deviceID))
	}
	return attrs
}

func (s otelSpan) End() {
	if s.inner == nil {
		return
	}
	s.inner.End()
}

func (s otelSpan) RecordError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.RecordError(err)
	s.inner.SetStatus(codes.Error, err.Error())
}

func (s otelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	if s.inner == nil {
		return
	}
	s.inner.SetAttributes(attrs...)
}
