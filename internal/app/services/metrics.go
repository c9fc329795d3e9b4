package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type pipelineMetrics struct {
	ticketsIssued   metric.Int64Counter
	ticketsRejected metric.Int64Counter
	confirmations   metric.Int64Counter
	reapedTickets   metric.Int64Counter
	reapedObjects   metric.Int64Counter
	publishFailures metric.Int64Counter
}

func newPipelineMetrics() pipelineMetrics {
	meter := otel.Meter("github.com/shyamsivadas/event-lens/internal/app/services")
	ticketsIssued, _ := meter.Int64Counter("eventlens.tickets.issued")
	ticketsRejected, _ := meter.Int64Counter("eventlens.tickets.rejected")
	confirmations, _ := meter.Int64Counter("eventlens.confirmations")
	reapedTickets, _ := meter.Int64Counter("eventlens.reaper.tickets")
	reapedObjects, _ := meter.Int64Counter("eventlens.reaper.objects")
	publishFailures, _ := meter.Int64Counter("eventlens.photo_events.failures")
	return pipelineMetrics{
		ticketsIssued:   ticketsIssued,
		ticketsRejected: ticketsRejected,
		confirmations:   confirmations,
		reapedTickets:   reapedTickets,
		reapedObjects:   reapedObjects,
		publishFailures: publishFailures,
	}
}

func (m pipelineMetrics) recordConfirmation(ctx context.Context, outcome string) {
	m.confirmations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m pipelineMetrics) recordRejectedTicket(ctx context.Context, err error) {
	m.ticketsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(ClassifyError(err)))))
}
