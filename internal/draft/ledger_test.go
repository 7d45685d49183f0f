package draft

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/golfdraft/golfdraft/internal/models"
)

// fakeStore is an in-memory Store with switchable read and write failures.
type fakeStore struct {
	mu         sync.Mutex
	picks      []models.Pick
	failWrites bool
	failReads  bool
}

var errStoreDown = errors.New("store down")

func (s *fakeStore) LoadPicks(ctx context.Context) ([]models.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads {
		return nil, errStoreDown
	}
	out := make([]models.Pick, len(s.picks))
	copy(out, s.picks)
	return out, nil
}

func (s *fakeStore) AppendPick(ctx context.Context, pick models.Pick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errStoreDown
	}
	s.picks = append(s.picks, pick)
	return nil
}

func (s *fakeStore) RemoveLastPick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errStoreDown
	}
	if len(s.picks) == 0 {
		return errors.New("no picks")
	}
	s.picks = s.picks[:len(s.picks)-1]
	return nil
}

type ledgerFixture struct {
	ledger  *Ledger
	store   *fakeStore
	order   []models.PickOrderEntry
	golfers []models.Golfer
}

// newLedgerFixture builds a 2-participant, 2-round draft over four golfers
// ranked 1..4.
func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	p1 := uuid.New()
	p2 := uuid.New()
	order, err := GeneratePickOrder([]uuid.UUID{p1, p2}, 2)
	if err != nil {
		t.Fatalf("GeneratePickOrder: %v", err)
	}

	golfers := make([]models.Golfer, 4)
	for i := range golfers {
		golfers[i] = models.Golfer{ID: uuid.New(), Name: "Golfer", WGR: i + 1, Seq: i}
	}

	store := &fakeStore{}
	ledger, err := NewLedger(context.Background(), store, order, golfers, clockwork.NewFakeClock())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return &ledgerFixture{ledger: ledger, store: store, order: order, golfers: golfers}
}

func TestCommitSequence(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	pick, err := f.ledger.Commit(ctx, CommitRequest{
		Participant:   f.order[0].Participant,
		Golfer:        f.golfers[0].ID,
		SequenceIndex: 0,
	})
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if pick.SequenceIndex != 0 {
		t.Errorf("got sequence index %d, want 0", pick.SequenceIndex)
	}

	pick, err = f.ledger.Commit(ctx, CommitRequest{
		Participant:   f.order[1].Participant,
		Golfer:        f.golfers[1].ID,
		SequenceIndex: 1,
	})
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if pick.SequenceIndex != 1 {
		t.Errorf("got sequence index %d, want 1", pick.SequenceIndex)
	}

	state, err := f.ledger.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if len(state.Picks) != 2 {
		t.Fatalf("got %d picks, want 2", len(state.Picks))
	}
	if state.NextIndex() != 2 {
		t.Errorf("got next index %d, want 2", state.NextIndex())
	}
}

func TestCommitOutOfOrder(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.ledger.Commit(context.Background(), CommitRequest{
		Participant:   f.order[1].Participant,
		Golfer:        f.golfers[0].ID,
		SequenceIndex: 0,
	})
	pe, ok := IsPickError(err)
	if !ok {
		t.Fatalf("got %v, want a pick error", err)
	}
	if pe.Kind != KindOutOfOrder {
		t.Errorf("got kind %v, want KindOutOfOrder", pe.Kind)
	}
}

func TestCommitRepeatGetsSequenceMismatch(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	req := CommitRequest{
		Participant:   f.order[0].Participant,
		Golfer:        f.golfers[0].ID,
		SequenceIndex: 0,
	}
	if _, err := f.ledger.Commit(ctx, req); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	// A duplicate submission carries a stale index; it must be rejected for
	// the index, not the participant, so the client can tell a double-send
	// from a genuine turn violation.
	_, err := f.ledger.Commit(ctx, req)
	pe, ok := IsPickError(err)
	if !ok {
		t.Fatalf("got %v, want a pick error", err)
	}
	if pe.Kind != KindSequenceMismatch {
		t.Errorf("got kind %v, want KindSequenceMismatch", pe.Kind)
	}
}

func TestCommitUnknownGolfer(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.ledger.Commit(context.Background(), CommitRequest{
		Participant:   f.order[0].Participant,
		Golfer:        uuid.New(),
		SequenceIndex: 0,
	})
	pe, ok := IsPickError(err)
	if !ok {
		t.Fatalf("got %v, want a pick error", err)
	}
	if pe.Kind != KindInvalidGolfer {
		t.Errorf("got kind %v, want KindInvalidGolfer", pe.Kind)
	}
}

func TestCommitAlreadyDrafted(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	if _, err := f.ledger.Commit(ctx, CommitRequest{
		Participant:   f.order[0].Participant,
		Golfer:        f.golfers[0].ID,
		SequenceIndex: 0,
	}); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	_, err := f.ledger.Commit(ctx, CommitRequest{
		Participant:   f.order[1].Participant,
		Golfer:        f.golfers[0].ID,
		SequenceIndex: 1,
	})
	pe, ok := IsPickError(err)
	if !ok {
		t.Fatalf("got %v, want a pick error", err)
	}
	if pe.Kind != KindAlreadyDrafted {
		t.Errorf("got kind %v, want KindAlreadyDrafted", pe.Kind)
	}
}

func TestCommitAfterComplete(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	for i, entry := range f.order {
		if _, err := f.ledger.Commit(ctx, CommitRequest{
			Participant:   entry.Participant,
			Golfer:        f.golfers[i].ID,
			SequenceIndex: i,
		}); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	_, err := f.ledger.Commit(ctx, CommitRequest{
		Participant:   f.order[0].Participant,
		Golfer:        f.golfers[0].ID,
		SequenceIndex: len(f.order),
	})
	if !errors.Is(err, ErrDraftComplete) {
		t.Errorf("got %v, want ErrDraftComplete", err)
	}

	if _, _, ok, err := f.ledger.CurrentTurn(ctx); err != nil || ok {
		t.Errorf("CurrentTurn after complete: ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestCommitConcurrentSingleWinner(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	const racers = 16
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.ledger.Commit(ctx, CommitRequest{
				Participant:   f.order[0].Participant,
				Golfer:        f.golfers[i%len(f.golfers)].ID,
				SequenceIndex: 0,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range results {
		if err == nil {
			wins++
			continue
		}
		if _, ok := IsPickError(err); !ok {
			t.Errorf("racer %d: got %v, want a pick error", i, err)
		}
	}
	if wins != 1 {
		t.Errorf("got %d winning commits, want exactly 1", wins)
	}
	if len(f.store.picks) != 1 {
		t.Errorf("store holds %d picks, want 1", len(f.store.picks))
	}
}

func TestUndo(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	if _, err := f.ledger.Undo(ctx); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("undo on empty draft: got %v, want ErrNothingToUndo", err)
	}

	committed, err := f.ledger.Commit(ctx, CommitRequest{
		Participant:   f.order[0].Participant,
		Golfer:        f.golfers[0].ID,
		SequenceIndex: 0,
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	undone, err := f.ledger.Undo(ctx)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if undone.Golfer != committed.Golfer {
		t.Errorf("undone golfer %s, want %s", undone.Golfer, committed.Golfer)
	}

	// The freed golfer is draftable again at the reopened index.
	if _, err := f.ledger.Commit(ctx, CommitRequest{
		Participant:   f.order[0].Participant,
		Golfer:        f.golfers[0].ID,
		SequenceIndex: 0,
	}); err != nil {
		t.Errorf("re-commit after undo: %v", err)
	}
}

func TestCommitStoreFailureRecovery(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	req := CommitRequest{
		Participant:   f.order[0].Participant,
		Golfer:        f.golfers[0].ID,
		SequenceIndex: 0,
	}

	f.store.failWrites = true
	_, err := f.ledger.Commit(ctx, req)
	if err == nil {
		t.Fatal("commit succeeded with failing store")
	}
	if _, ok := IsPickError(err); ok {
		t.Fatalf("store failure surfaced as pick error: %v", err)
	}

	// The failed write left nothing behind, so after the store recovers the
	// same request succeeds at the same index.
	f.store.failWrites = false
	if _, err := f.ledger.Commit(ctx, req); err != nil {
		t.Fatalf("commit after recovery: %v", err)
	}
}

func TestNewLedgerRejectsIncoherentPicks(t *testing.T) {
	p1 := uuid.New()
	p2 := uuid.New()
	order, err := GeneratePickOrder([]uuid.UUID{p1, p2}, 1)
	if err != nil {
		t.Fatalf("GeneratePickOrder: %v", err)
	}
	g := models.Golfer{ID: uuid.New(), Name: "Golfer", WGR: 1}

	store := &fakeStore{picks: []models.Pick{
		{SequenceIndex: 0, Participant: p2, Golfer: g.ID},
	}}
	if _, err := NewLedger(context.Background(), store, order, []models.Golfer{g}, clockwork.NewFakeClock()); err == nil {
		t.Error("expected error for pick that does not match the order")
	}
}

func TestBestAvailableOrdering(t *testing.T) {
	p := uuid.New()
	order, err := GeneratePickOrder([]uuid.UUID{p}, 1)
	if err != nil {
		t.Fatalf("GeneratePickOrder: %v", err)
	}

	ranked5 := models.Golfer{ID: uuid.New(), Name: "Ranked 5", WGR: 5, Seq: 0}
	ranked2 := models.Golfer{ID: uuid.New(), Name: "Ranked 2", WGR: 2, Seq: 1}
	unrankedA := models.Golfer{ID: uuid.New(), Name: "Unranked A", WGR: models.UnknownWGR, Seq: 2}
	unrankedB := models.Golfer{ID: uuid.New(), Name: "Unranked B", WGR: models.UnknownWGR, Seq: 3}

	ledger, err := NewLedger(context.Background(), &fakeStore{}, order,
		[]models.Golfer{unrankedB, ranked5, unrankedA, ranked2}, clockwork.NewFakeClock())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	avail, err := ledger.BestAvailable(context.Background())
	if err != nil {
		t.Fatalf("BestAvailable: %v", err)
	}
	want := []uuid.UUID{ranked2.ID, ranked5.ID, unrankedA.ID, unrankedB.ID}
	if len(avail) != len(want) {
		t.Fatalf("got %d golfers, want %d", len(avail), len(want))
	}
	for i, g := range avail {
		if g.ID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, g.Name, want[i])
		}
	}
}

func TestFilterDrafted(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	if _, err := f.ledger.Commit(ctx, CommitRequest{
		Participant:   f.order[0].Participant,
		Golfer:        f.golfers[1].ID,
		SequenceIndex: 0,
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	list := []uuid.UUID{f.golfers[1].ID, f.golfers[2].ID, f.golfers[0].ID}
	remaining, err := f.ledger.FilterDrafted(ctx, list)
	if err != nil {
		t.Fatalf("FilterDrafted: %v", err)
	}
	want := []uuid.UUID{f.golfers[2].ID, f.golfers[0].ID}
	if len(remaining) != len(want) {
		t.Fatalf("got %d remaining, want %d", len(remaining), len(want))
	}
	for i, id := range remaining {
		if id != want[i] {
			t.Errorf("position %d: got %s, want %s", i, id, want[i])
		}
	}
}
