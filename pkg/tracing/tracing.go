package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Span struct {
	span    trace.Span
	logger  *zap.Logger
	ctx     context.Context
	name    string
	started time.Time
}

func StartSpan(ctx context.Context, tracer trace.Tracer, logger *zap.Logger, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))

	return ctx, &Span{
		span:    span,
		logger:  logger,
		ctx:     ctx,
		name:    name,
		started: time.Now(),
	}
}

// End closes the span, marks its status from err and emits one debug line
// with the span duration.
func (s *Span) End(err error) {
	elapsed := time.Since(s.started)

	if err != nil {
		s.span.SetStatus(codes.Error, err.Error())
		s.span.RecordError(err)
		s.logger.Debug("span failed", zap.String("span", s.name), zap.Duration("elapsed", elapsed), zap.Error(err))
	} else {
		s.span.SetStatus(codes.Ok, "")
		s.logger.Debug("span done", zap.String("span", s.name), zap.Duration("elapsed", elapsed))
	}

	s.span.End()
}

func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// Elapsed is the time since the span started.
func (s *Span) Elapsed() time.Duration {
	return time.Since(s.started)
}
