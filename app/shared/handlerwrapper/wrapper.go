// Package handlerwrapper adapts typed event handlers to watermill handler
// functions.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Black-And-White-Club/pingpong-bot/app/eventbus"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/observability"
)

// Result is one outgoing event produced by a handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// HandlerFunc is a handler over a decoded payload.
type HandlerFunc[T any] func(ctx context.Context, payload *T) ([]Result, error)

// WrapTransformingTyped decodes the incoming JSON payload into T, runs the
// handler inside a span and turns its results into messages routed by topic
// metadata. Undecodable payloads are logged and acked; handler errors nack the
// message.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics observability.Metrics,
	handler HandlerFunc[T],
) message.HandlerFunc {
	if metrics == nil {
		metrics = observability.NewNoop()
	}

	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := middleware.MessageCorrelationID(msg)
		ctx := observability.WithCorrelationID(msg.Context(), correlationID)
		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.id", msg.UUID),
			attribute.String("correlation_id", correlationID),
		))
		defer span.End()

		start := time.Now()
		metrics.RecordOperationAttempt(ctx, handlerName, "handler")
		defer func() {
			metrics.RecordOperationDuration(ctx, handlerName, "handler", time.Since(start))
		}()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Failed to decode payload",
				observability.CorrelationID(ctx),
				slog.String("handler", handlerName),
				slog.String("message_id", msg.UUID),
				slog.String("error", err.Error()),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode")
			metrics.RecordOperationFailure(ctx, handlerName, "handler")
			return nil, nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler failed",
				observability.CorrelationID(ctx),
				slog.String("handler", handlerName),
				slog.String("error", err.Error()),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordOperationFailure(ctx, handlerName, "handler")
			return nil, err
		}

		out := make([]*message.Message, 0, len(results))
		for _, r := range results {
			m, err := NewMessage(ctx, r)
			if err != nil {
				metrics.RecordOperationFailure(ctx, handlerName, "handler")
				return nil, err
			}
			out = append(out, m)
		}

		metrics.RecordOperationSuccess(ctx, handlerName, "handler")
		return out, nil
	}
}

// NewMessage encodes a result as a watermill message that carries its topic
// and the correlation id from ctx.
func NewMessage(ctx context.Context, r Result) (*message.Message, error) {
	if r.Topic == "" {
		return nil, fmt.Errorf("result without topic: %w", eventbus.ErrNoTopic)
	}
	body, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", r.Topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.SetContext(ctx)
	for k, v := range r.Metadata {
		msg.Metadata.Set(k, v)
	}
	msg.Metadata.Set(eventbus.TopicMetadataKey, r.Topic)
	if id := observability.CorrelationIDFrom(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	return msg, nil
}

// Publish sends results outside of a router handler, e.g. from a queue worker.
func Publish(ctx context.Context, pub message.Publisher, results ...Result) error {
	for _, r := range results {
		msg, err := NewMessage(ctx, r)
		if err != nil {
			return err
		}
		if err := pub.Publish(r.Topic, msg); err != nil {
			return fmt.Errorf("failed to publish %s: %w", r.Topic, err)
		}
	}
	return nil
}
