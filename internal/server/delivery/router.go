// Package delivery pushes persisted messages to their receiver's live
// connection. Delivery is best effort: failures are logged and counted but
// never reported to the sender, and nothing is queued or retried.
package delivery

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/events"
	"github.com/dmitrijs2005/gophchat/internal/server/metrics"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/presence"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/gophchat/internal/server/delivery"

type Outcome int

const (
	Delivered Outcome = iota
	Offline
	Failed
	Disabled
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Offline:
		return "offline"
	case Failed:
		return "failed"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Lookup resolves a user id to its live connection.
type Lookup interface {
	Lookup(userID string) (presence.Handle, bool)
}

type Router struct {
	lookup  Lookup
	logger  logging.Logger
	metrics *metrics.Collector
	enabled bool
	tracer  trace.Tracer
}

// NewRouter builds a router. With enabled false every Route is a no-op.
func NewRouter(lookup Lookup, logger logging.Logger, m *metrics.Collector, enabled bool) *Router {
	return &Router{
		lookup:  lookup,
		logger:  logger.With("module", "delivery"),
		metrics: m,
		enabled: enabled,
		tracer:  otel.Tracer(tracerName),
	}
}

// Route pushes msg to the receiver if online. msg must already be persisted.
func (r *Router) Route(ctx context.Context, msg *models.Message) Outcome {
	ctx, span := r.tracer.Start(ctx, "delivery.Route",
		trace.WithAttributes(
			attribute.String("message.id", msg.ID),
			attribute.String("message.receiver_id", msg.ReceiverID),
		))
	defer span.End()

	outcome := r.route(ctx, span, msg)

	span.SetAttributes(attribute.String("delivery.outcome", outcome.String()))
	r.metrics.Delivery(outcome.String())
	return outcome
}

func (r *Router) route(ctx context.Context, span trace.Span, msg *models.Message) Outcome {
	if !r.enabled {
		return Disabled
	}

	h, ok := r.lookup.Lookup(msg.ReceiverID)
	if !ok {
		return Offline
	}

	frame, err := events.Encode(events.NewMessage, msg)
	if err != nil {
		r.logger.Error(ctx, "encode message", "message_id", msg.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Failed
	}

	if err := h.Send(frame); err != nil {
		r.logger.Warn(ctx, "live delivery failed", "message_id", msg.ID, "receiver_id", msg.ReceiverID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Failed
	}

	r.logger.Debug(ctx, "message delivered", "message_id", msg.ID, "receiver_id", msg.ReceiverID)
	return Delivered
}
