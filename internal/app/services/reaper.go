package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
)

const (
	// DefaultReaperInterval is the pause between orphan sweeps.
	DefaultReaperInterval = 5 * time.Minute

	reaperBatchSize = 200
)

// SweepResult counts what one sweep removed.
type SweepResult struct {
	Tickets int
	Objects int
	Pruned  int
}

// Reaper removes tickets that expired unconfirmed together with any object
// written under them, and prunes consumed tickets past the grace window.
type Reaper struct {
	tickets  ports.TicketStore
	blobs    ports.BlobStore
	log      *slog.Logger
	grace    time.Duration
	interval time.Duration
	now      func() time.Time
	metrics  pipelineMetrics
}

// NewReaper constructs the orphan reaper.
func NewReaper(tickets ports.TicketStore, blobs ports.BlobStore, log *slog.Logger, grace, interval time.Duration) *Reaper {
	if log == nil {
		log = slog.Default()
	}
	if grace < 0 {
		grace = 0
	}
	if interval <= 0 {
		interval = DefaultReaperInterval
	}
	return &Reaper{
		tickets:  tickets,
		blobs:    blobs,
		log:      log,
		grace:    grace,
		interval: interval,
		now:      time.Now,
		metrics:  newPipelineMetrics(),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := r.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.log.Warn("reaper sweep failed", "error", err)
				continue
			}
			if result.Tickets > 0 || result.Pruned > 0 {
				r.log.Info("reaper_sweep", "tickets", result.Tickets, "objects", result.Objects, "pruned", result.Pruned)
			}
		}
	}
}

// Sweep performs one reaping pass.
func (r *Reaper) Sweep(ctx context.Context) (SweepResult, error) {
	cutoff := r.now().UTC().Add(-r.grace)
	var result SweepResult

	for {
		expired, err := r.tickets.ListExpiredTickets(ctx, cutoff, reaperBatchSize)
		if err != nil {
			return result, err
		}
		for _, ticket := range expired {
			deleted, err := r.tickets.DeleteTicket(ctx, ticket.ObjectKey)
			if err != nil {
				return result, err
			}
			if !deleted {
				// confirmed between listing and delete
				continue
			}
			result.Tickets++
			if err := r.blobs.Delete(ctx, ticket.ObjectKey); err != nil {
				if errors.Is(err, ports.ErrBlobNotFound) {
					continue
				}
				r.log.WarnContext(ctx, "reaper could not delete orphaned object", "object_key", ticket.ObjectKey, "error", err)
				continue
			}
			result.Objects++
		}
		if len(expired) < reaperBatchSize {
			break
		}
	}

	pruned, err := r.tickets.PruneConsumedTickets(ctx, cutoff)
	if err != nil {
		return result, err
	}
	result.Pruned = pruned

	r.metrics.reapedTickets.Add(ctx, int64(result.Tickets))
	r.metrics.reapedObjects.Add(ctx, int64(result.Objects))
	return result, nil
}
