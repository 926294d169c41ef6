package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/itemlocations/pkg/auth"
	"github.com/ghuser/itemlocations/pkg/logger"
	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
	"github.com/ghuser/itemlocations/services/item/domain/models"
)

func testItem() *models.Item {
	item := &models.Item{
		Name:      "Desk",
		Postcode:  "10001",
		StartDate: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
	item.AssignIdentity(uuid.New(), time.Now())
	return item
}

func testPrincipal() *auth.Principal {
	return &auth.Principal{Subject: "user-1", Email: "user@example.com"}
}

func TestDispatch_BothSucceed(t *testing.T) {
	n, s, o := &fakeNotifications{}, &fakeStream{}, &fakeObserver{}
	d := NewDispatcher(n, s, o, time.Second, logger.Discard())
	item := testItem()

	res := d.Dispatch(context.Background(), item, testPrincipal())
	if err := res.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.got) != 1 || len(s.got) != 1 {
		t.Fatalf("expected one publish per sink, got %d/%d", len(n.got), len(s.got))
	}
	if n.got[0].EventID != s.got[0].EventID || n.got[0].EventID != res.EventID {
		t.Errorf("event ids differ: %s %s %s", n.got[0].EventID, s.got[0].EventID, res.EventID)
	}
	if n.got[0].ItemID != item.ID || s.got[0].Item.ID != item.ID {
		t.Errorf("item id not carried")
	}
	if s.got[0].Subject != "user-1" || s.got[0].Email != "user@example.com" {
		t.Errorf("principal not carried: %+v", s.got[0])
	}
	if s.got[0].PartitionKey() != "10001" {
		t.Errorf("partition key: got %q", s.got[0].PartitionKey())
	}
	if len(o.got) != 1 || o.got[0].outcome != OutcomeOK || o.got[0].err != nil {
		t.Errorf("observer: %+v", o.got)
	}
}

func TestDispatch_Outcomes(t *testing.T) {
	rejected := &itemdomain.SinkError{Sink: "stream", Kind: itemdomain.SinkRejected, Err: errors.New("too large")}

	tests := []struct {
		name         string
		notifyErr    error
		streamErr    error
		wantKind     itemdomain.DispatchErrorKind
		wantOutcome  string
		wantSinkKind itemdomain.SinkErrorKind
	}{
		{"notification only fails", errDown, nil, itemdomain.NotificationDegraded, OutcomeDegraded, itemdomain.SinkUnavailable},
		{"stream only fails", nil, rejected, itemdomain.StreamFailed, OutcomeFailed, itemdomain.SinkRejected},
		{"both fail", errDown, errDown, itemdomain.StreamFailed, OutcomeFailed, itemdomain.SinkUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &fakeObserver{}
			d := NewDispatcher(&fakeNotifications{err: tt.notifyErr}, &fakeStream{err: tt.streamErr}, o, time.Second, logger.Discard())

			res := d.Dispatch(context.Background(), testItem(), testPrincipal())
			var dErr *itemdomain.DispatchError
			if !errors.As(res.Err(), &dErr) {
				t.Fatalf("expected DispatchError, got %v", res.Err())
			}
			if dErr.Kind != tt.wantKind {
				t.Errorf("kind: got %s, want %s", dErr.Kind, tt.wantKind)
			}
			var sErr *itemdomain.SinkError
			if !errors.As(res.Err(), &sErr) || sErr.Kind != tt.wantSinkKind {
				t.Errorf("sink error: got %v, want kind %s", res.Err(), tt.wantSinkKind)
			}
			if len(o.got) != 1 || o.got[0].outcome != tt.wantOutcome {
				t.Errorf("observer: %+v", o.got)
			}
		})
	}
}

func TestDispatch_TimeoutBoundsSlowSinks(t *testing.T) {
	n := &fakeNotifications{block: true}
	s := &fakeStream{waitCtx: true}
	d := NewDispatcher(n, s, nil, 50*time.Millisecond, logger.Discard())

	start := time.Now()
	res := d.Dispatch(context.Background(), testItem(), testPrincipal())
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("dispatch not bounded: took %s", elapsed)
	}

	for name, err := range map[string]error{"notification": res.Notification, "stream": res.Stream} {
		var sErr *itemdomain.SinkError
		if !errors.As(err, &sErr) || sErr.Kind != itemdomain.SinkTimeout {
			t.Errorf("%s: expected timeout, got %v", name, err)
		}
	}
	if !res.Failed() {
		t.Error("stream timeout must fail the dispatch")
	}
}

func TestDispatch_SurvivesCancelledRequest(t *testing.T) {
	s := &fakeStream{}
	d := NewDispatcher(&fakeNotifications{}, s, nil, time.Second, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Dispatch(ctx, testItem(), testPrincipal()).Err(); err != nil {
		t.Fatalf("cancelled request context must not fail dispatch: %v", err)
	}
	if len(s.got) != 1 {
		t.Errorf("stream append dropped")
	}
}

func TestDispatchResult_Helpers(t *testing.T) {
	ok := &DispatchResult{}
	if ok.Failed() || ok.Degraded() || ok.Err() != nil {
		t.Errorf("clean result reported failure")
	}
	degraded := &DispatchResult{Notification: errDown}
	if degraded.Failed() || !degraded.Degraded() {
		t.Errorf("degraded result misreported")
	}
	failed := &DispatchResult{Notification: errDown, Stream: errDown}
	if !failed.Failed() || failed.Degraded() {
		t.Errorf("failed result misreported")
	}
}
