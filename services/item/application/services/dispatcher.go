package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ghuser/itemlocations/pkg/auth"
	"github.com/ghuser/itemlocations/pkg/logger"
	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
	"github.com/ghuser/itemlocations/services/item/domain/events"
	"github.com/ghuser/itemlocations/services/item/domain/models"
)

// Sink names used in SinkError when the dispatcher itself produces the error.
const (
	notificationSinkName = "notification"
	streamSinkName       = "stream"
)

// Dispatch outcomes reported to the Observer.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

// NotificationSink publishes advisory item notifications.
type NotificationSink interface {
	Publish(ctx context.Context, n events.ItemCreatedNotification) error
}

// EventStreamSink appends durable audit records.
type EventStreamSink interface {
	Append(ctx context.Context, rec events.ItemAuditRecord) error
}

// Observer is told about every dispatch. err is nil for OutcomeOK.
type Observer interface {
	ObserveDispatch(ctx context.Context, outcome string, err error)
}

// DispatchResult holds the per-sink outcome of one dispatch.
type DispatchResult struct {
	EventID      uuid.UUID
	Notification error
	Stream       error
}

// Failed reports whether the durable stream write failed.
func (r *DispatchResult) Failed() bool { return r.Stream != nil }

// Degraded reports a successful stream write with a failed notification.
func (r *DispatchResult) Degraded() bool { return r.Stream == nil && r.Notification != nil }

// Err returns nil on success and a *domain.DispatchError otherwise.
func (r *DispatchResult) Err() error {
	switch {
	case r.Failed():
		return &itemdomain.DispatchError{Kind: itemdomain.StreamFailed, Err: r.Stream}
	case r.Degraded():
		return &itemdomain.DispatchError{Kind: itemdomain.NotificationDegraded, Err: r.Notification}
	default:
		return nil
	}
}

// Dispatcher fans a created item out to the notification and stream sinks.
type Dispatcher struct {
	notifications NotificationSink
	stream        EventStreamSink
	observer      Observer
	timeout       time.Duration
	log           logger.Logger
	now           func() time.Time
}

// NewDispatcher returns a Dispatcher. observer may be nil. A zero timeout
// leaves sink calls bounded only by the sinks themselves.
func NewDispatcher(n NotificationSink, s EventStreamSink, observer Observer, timeout time.Duration, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		notifications: n,
		stream:        s,
		observer:      observer,
		timeout:       timeout,
		log:           log,
		now:           time.Now,
	}
}

// Dispatch publishes item to both sinks concurrently and waits for both. The
// publishes outlive a cancelled request so the audit record is never dropped
// because a client went away.
func (d *Dispatcher) Dispatch(ctx context.Context, item *models.Item, p *auth.Principal) *DispatchResult {
	res := &DispatchResult{EventID: uuid.New()}
	at := d.now()
	detached := context.WithoutCancel(ctx)

	var subject, email string
	if p != nil {
		subject, email = p.Subject, p.Email
	}
	notification := events.NewItemCreatedNotification(res.EventID, item, at)
	record := events.NewItemAuditRecord(res.EventID, item, subject, email, at)

	var g errgroup.Group
	g.Go(func() error {
		res.Notification = d.call(detached, notificationSinkName, func(ctx context.Context) error {
			return d.notifications.Publish(ctx, notification)
		})
		return nil
	})
	g.Go(func() error {
		res.Stream = d.call(detached, streamSinkName, func(ctx context.Context) error {
			return d.stream.Append(ctx, record)
		})
		return nil
	})
	_ = g.Wait()

	switch {
	case res.Failed():
		d.log.ErrorContext(ctx, "dispatch: stream append failed",
			"item_id", item.ID, "event_id", res.EventID, "error", res.Stream)
		d.observe(ctx, OutcomeFailed, res.Err())
	case res.Degraded():
		d.log.WarnContext(ctx, "dispatch: notification failed, item ingested",
			"item_id", item.ID, "event_id", res.EventID, "error", res.Notification)
		d.observe(ctx, OutcomeDegraded, res.Err())
	default:
		d.observe(ctx, OutcomeOK, nil)
	}
	return res
}

// call runs fn under the dispatch timeout. It returns once the deadline
// passes even if fn ignores its context.
func (d *Dispatcher) call(ctx context.Context, sink string, fn func(context.Context) error) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		var sinkErr *itemdomain.SinkError
		if errors.As(err, &sinkErr) {
			return err
		}
		kind := itemdomain.SinkUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			kind = itemdomain.SinkTimeout
		}
		return &itemdomain.SinkError{Sink: sink, Kind: kind, Err: err}
	case <-ctx.Done():
		return &itemdomain.SinkError{Sink: sink, Kind: itemdomain.SinkTimeout, Err: ctx.Err()}
	}
}

func (d *Dispatcher) observe(ctx context.Context, outcome string, err error) {
	if d.observer != nil {
		d.observer.ObserveDispatch(ctx, outcome, err)
	}
}
