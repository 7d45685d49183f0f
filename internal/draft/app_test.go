package draft

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/golfdraft/golfdraft/internal/events"
	"github.com/golfdraft/golfdraft/internal/models"
)

type recordingPoker struct{ pokes int }

func (p *recordingPoker) Poke() { p.pokes++ }

type recordingNotifier struct {
	committed []models.DraftState
	reverted  []models.DraftState
}

func (n *recordingNotifier) PickCommitted(ctx context.Context, pick models.Pick, state models.DraftState, source models.PickSource, proxyFor *uuid.UUID) {
	n.committed = append(n.committed, state)
}

func (n *recordingNotifier) PickReverted(ctx context.Context, pick models.Pick, state models.DraftState) {
	n.reverted = append(n.reverted, state)
}

func TestAfterCommitFansOutOnStateLoadFailure(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	pick, err := f.ledger.Commit(ctx, CommitRequest{
		Participant:   f.order[0].Participant,
		Golfer:        f.golfers[0].ID,
		SequenceIndex: 0,
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	// A failed write marks the cache stale; with reads failing too, every
	// later state load errors.
	f.store.failWrites = true
	if _, err := f.ledger.Undo(ctx); err == nil {
		t.Fatal("undo succeeded with writes failing")
	}
	f.store.failReads = true

	bus := events.NewBus()
	ch, cancel := bus.Subscribe(4)
	defer cancel()

	app := NewApp(f.ledger, nil, nil, bus)
	poker := &recordingPoker{}
	notifier := &recordingNotifier{}
	app.SetPoker(poker)
	app.SetNotifier(notifier)

	app.afterCommit(ctx, pick, models.PickSourceUser, nil)

	if poker.pokes != 1 {
		t.Errorf("got %d pokes, want 1", poker.pokes)
	}
	if len(notifier.committed) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifier.committed))
	}
	if len(notifier.committed[0].PickOrder) != 0 {
		t.Error("notifier got a non-empty snapshot from a failed load")
	}

	// The draft event still goes out, and never a completion event for an
	// empty snapshot.
	select {
	case ev := <-ch:
		if ev.Type != events.TypeDraftChanged {
			t.Fatalf("got event %s, want %s", ev.Type, events.TypeDraftChanged)
		}
		var payload events.DraftChangedPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload.Complete {
			t.Error("empty snapshot reported the draft complete")
		}
	default:
		t.Fatal("no draft event published")
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event %s", ev.Type)
	default:
	}
}
