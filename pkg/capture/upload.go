package capture

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"

	"github.com/shyamsivadas/event-lens/pkg/guestclient"
)

// Step names the part of the per-photo sequence that failed.
type Step string

const (
	StepTicket   Step = "ticket"
	StepTransfer Step = "transfer"
	StepConfirm  Step = "confirm"
)

// FailureKind classifies a per-photo failure.
type FailureKind string

const (
	FailureTransient      FailureKind = "transient"
	FailureQuotaExceeded  FailureKind = "quota_exceeded"
	FailureObjectNotFound FailureKind = "object_not_found"
	FailureRejected       FailureKind = "rejected"
	FailureCanceled       FailureKind = "canceled"
)

// Outcome is the result of one capture in a batch.
type Outcome struct {
	CaptureID string
	Filename  string
	// ObjectKey is the stored object the capture holds after this attempt.
	ObjectKey string
	Photo     guestclient.Confirmation
	Step      Step
	Kind      FailureKind
	Err       error
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// BatchResult accumulates per-photo outcomes of one upload pass.
type BatchResult struct {
	Succeeded []Outcome
	Failed    []Outcome
}

// Total is the number of captures attempted.
func (r BatchResult) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// Upload sends every pending capture. A failing photo never stops the rest.
// Succeeded captures leave the pending set; failed ones stay for retry.
func (s *Session) Upload(ctx context.Context) (BatchResult, error) {
	s.mu.Lock()
	if !s.in(StateSelecting, StateReviewing) || len(s.pending) == 0 {
		s.mu.Unlock()
		return BatchResult{}, ErrInvalidState
	}
	s.state = StateUploading
	batch := lo.Map(s.pending, func(c *Capture, _ int) Capture { return *c })
	eventID := s.event.EventID
	s.mu.Unlock()

	outcomes := make([]Outcome, len(batch))
	if s.opts.Concurrency > 1 {
		p := pool.New().WithMaxGoroutines(s.opts.Concurrency)
		for i, capture := range batch {
			p.Go(func() {
				outcomes[i] = s.uploadOne(ctx, eventID, capture)
			})
		}
		p.Wait()
	} else {
		for i, capture := range batch {
			outcomes[i] = s.uploadOne(ctx, eventID, capture)
		}
	}

	succeeded, failed := lo.FilterReject(outcomes, func(o Outcome, _ int) bool { return o.Succeeded() })
	result := BatchResult{Succeeded: succeeded, Failed: failed}

	quota := s.settle(result)
	if lo.ContainsBy(failed, func(o Outcome) bool { return o.Kind == FailureQuotaExceeded }) {
		if fresh, err := s.api.Limit(ctx, s.shareToken, s.deviceID); err == nil {
			quota = fresh
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.quota = quota
	doneIDs := lo.Map(succeeded, func(o Outcome, _ int) string { return o.CaptureID })
	s.pending = lo.Reject(s.pending, func(c *Capture, _ int) bool { return lo.Contains(doneIDs, c.ID) })
	for _, o := range failed {
		if c, ok := lo.Find(s.pending, func(c *Capture) bool { return c.ID == o.CaptureID }); ok {
			c.ObjectKey = o.ObjectKey
		}
	}
	if quota.Max > 0 && quota.Used >= quota.Max {
		s.state = StateDone
	} else {
		s.state = StateSelecting
	}
	return result, nil
}

// settle derives the post-batch quota, preferring the ledger's own figures.
func (s *Session) settle(result BatchResult) guestclient.Quota {
	s.mu.Lock()
	local := s.quota
	s.mu.Unlock()

	local.Used += len(result.Succeeded)
	local.Remaining = max(0, local.Max-local.Used)
	if len(result.Succeeded) == 0 {
		return local
	}
	reported := lo.MaxBy(result.Succeeded, func(a, b Outcome) bool { return a.Photo.Used > b.Photo.Used }).Photo.Quota
	if reported.Max == 0 {
		return local
	}
	return reported
}

func (s *Session) uploadOne(ctx context.Context, eventID string, capture Capture) Outcome {
	outcome := Outcome{CaptureID: capture.ID, Filename: capture.Filename, ObjectKey: capture.ObjectKey}
	if err := ctx.Err(); err != nil {
		return fail(outcome, StepTicket, err)
	}

	if !capture.Transferred() {
		ticket, err := s.api.IssueTicket(ctx, s.shareToken, guestclient.TicketRequest{
			EventID:     eventID,
			DeviceID:    s.deviceID,
			Filename:    capture.Filename,
			ContentType: capture.ContentType,
		})
		if err != nil {
			return fail(outcome, StepTicket, err)
		}
		if err := s.api.Transfer(ctx, ticket, capture.Data); err != nil {
			return fail(outcome, StepTransfer, err)
		}
		capture.ObjectKey = ticket.ObjectKey
		outcome.ObjectKey = ticket.ObjectKey
	}

	photo, err := s.api.Confirm(ctx, s.shareToken, guestclient.ConfirmRequest{
		DeviceID:       s.deviceID,
		ObjectKey:      capture.ObjectKey,
		IdempotencyKey: capture.IdempotencyKey,
		Filename:       capture.Filename,
		Note:           capture.Note,
	})
	if err != nil {
		if errors.Is(err, guestclient.ErrObjectNotFound) {
			// ticket lapsed before confirm; the next attempt needs a fresh one
			outcome.ObjectKey = ""
		}
		return fail(outcome, StepConfirm, err)
	}
	outcome.Photo = photo
	return outcome
}

func fail(outcome Outcome, step Step, err error) Outcome {
	outcome.Step = step
	outcome.Err = err
	outcome.Kind = classify(err)
	return outcome
}

func classify(err error) FailureKind {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	case errors.Is(err, guestclient.ErrQuotaExceeded):
		return FailureQuotaExceeded
	case errors.Is(err, guestclient.ErrObjectNotFound):
		return FailureObjectNotFound
	case guestclient.IsTransient(err):
		return FailureTransient
	default:
		return FailureRejected
	}
}
