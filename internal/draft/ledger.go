package draft

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/golfdraft/golfdraft/internal/models"
)

// Store is the persistence collaborator the ledger sequences its writes
// through. Each call is assumed atomic; durability is the store's problem.
type Store interface {
	LoadPicks(ctx context.Context) ([]models.Pick, error)
	AppendPick(ctx context.Context, pick models.Pick) error
	RemoveLastPick(ctx context.Context) error
}

// CommitRequest is a pick attempt, human or automatic.
type CommitRequest struct {
	Participant     uuid.UUID
	Golfer          uuid.UUID
	SequenceIndex   int
	ClientTimestamp time.Time
}

// Ledger is the authoritative draft state machine: the append-only pick
// sequence plus the current-turn cursor. All commits and undos for a draft
// go through one Ledger instance; the commit path is serialized so at most
// one commit can succeed for a given sequence index.
type Ledger struct {
	store Store
	clock clockwork.Clock

	mu      sync.Mutex
	order   []models.PickOrderEntry
	golfers map[uuid.UUID]models.Golfer
	picks   []models.Pick
	drafted map[uuid.UUID]bool
	// stale is set when a store write fails; the next operation re-derives
	// the pick sequence from the store instead of trusting the cache.
	stale bool
}

// NewLedger builds a ledger over the given order and tournament field,
// loading any already-committed picks from the store.
func NewLedger(ctx context.Context, store Store, order []models.PickOrderEntry, golfers []models.Golfer, clock clockwork.Clock) (*Ledger, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("new ledger: empty pick order")
	}

	byID := make(map[uuid.UUID]models.Golfer, len(golfers))
	for _, g := range golfers {
		byID[g.ID] = g
	}

	l := &Ledger{
		store:   store,
		clock:   clock,
		order:   order,
		golfers: byID,
	}

	picks, err := store.LoadPicks(ctx)
	if err != nil {
		return nil, fmt.Errorf("new ledger: load picks: %w", err)
	}
	if err := l.install(picks); err != nil {
		return nil, fmt.Errorf("new ledger: %w", err)
	}
	return l, nil
}

// install replaces the cached pick sequence after checking it is coherent
// against the order. Caller holds the lock (or is the constructor).
func (l *Ledger) install(picks []models.Pick) error {
	if len(picks) > len(l.order) {
		return fmt.Errorf("%d picks exceed order length %d", len(picks), len(l.order))
	}
	drafted := make(map[uuid.UUID]bool, len(picks))
	for i, p := range picks {
		if p.SequenceIndex != i {
			return fmt.Errorf("pick %d has sequence index %d", i, p.SequenceIndex)
		}
		if p.Participant != l.order[i].Participant {
			return fmt.Errorf("pick %d participant %s does not match order", i, p.Participant)
		}
		if drafted[p.Golfer] {
			return fmt.Errorf("golfer %s drafted twice", p.Golfer)
		}
		drafted[p.Golfer] = true
	}
	l.picks = picks
	l.drafted = drafted
	l.stale = false
	return nil
}

// ensureFreshLocked reloads the pick sequence from the store if a prior
// write failure left the cache suspect.
func (l *Ledger) ensureFreshLocked(ctx context.Context) error {
	if !l.stale {
		return nil
	}
	log.Warn().Msg("ledger cache stale after store failure; reloading picks")
	picks, err := l.store.LoadPicks(ctx)
	if err != nil {
		return fmt.Errorf("reload picks: %w", err)
	}
	return l.install(picks)
}

// Commit validates and appends a pick. Validation and append are atomic with
// respect to concurrent commits: losers of the race observe the post-append
// state and fail with a PickError rather than corrupt the sequence.
func (l *Ledger) Commit(ctx context.Context, req CommitRequest) (models.Pick, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureFreshLocked(ctx); err != nil {
		return models.Pick{}, err
	}

	next := len(l.picks)
	if next == len(l.order) {
		return models.Pick{}, ErrDraftComplete
	}
	if req.SequenceIndex != next {
		return models.Pick{}, &PickError{Kind: KindSequenceMismatch}
	}
	if req.Participant != l.order[next].Participant {
		return models.Pick{}, &PickError{Kind: KindOutOfOrder}
	}
	if _, known := l.golfers[req.Golfer]; !known {
		return models.Pick{}, &PickError{Kind: KindInvalidGolfer}
	}
	if l.drafted[req.Golfer] {
		return models.Pick{}, &PickError{Kind: KindAlreadyDrafted}
	}

	pick := models.Pick{
		SequenceIndex:   next,
		Participant:     req.Participant,
		Golfer:          req.Golfer,
		Timestamp:       l.clock.Now(),
		ClientTimestamp: req.ClientTimestamp,
	}

	if err := l.store.AppendPick(ctx, pick); err != nil {
		l.stale = true
		return models.Pick{}, fmt.Errorf("append pick: %w", err)
	}

	l.picks = append(l.picks, pick)
	l.drafted[pick.Golfer] = true
	return pick, nil
}

// Undo removes the last committed pick. One pick per call, no redo.
func (l *Ledger) Undo(ctx context.Context) (models.Pick, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureFreshLocked(ctx); err != nil {
		return models.Pick{}, err
	}
	if len(l.picks) == 0 {
		return models.Pick{}, ErrNothingToUndo
	}

	last := l.picks[len(l.picks)-1]
	if err := l.store.RemoveLastPick(ctx); err != nil {
		l.stale = true
		return models.Pick{}, fmt.Errorf("remove last pick: %w", err)
	}

	l.picks = l.picks[:len(l.picks)-1]
	delete(l.drafted, last.Golfer)
	return last, nil
}

// State returns a consistent snapshot of the draft.
func (l *Ledger) State(ctx context.Context) (models.DraftState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureFreshLocked(ctx); err != nil {
		return models.DraftState{}, err
	}
	picks := make([]models.Pick, len(l.picks))
	copy(picks, l.picks)
	return models.DraftState{PickOrder: l.order, Picks: picks}, nil
}

// CurrentTurn returns the order entry and sequence index on the clock, or
// ok=false once the draft is complete.
func (l *Ledger) CurrentTurn(ctx context.Context) (entry models.PickOrderEntry, index int, ok bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureFreshLocked(ctx); err != nil {
		return models.PickOrderEntry{}, 0, false, err
	}
	index = len(l.picks)
	if index == len(l.order) {
		return models.PickOrderEntry{}, index, false, nil
	}
	return l.order[index], index, true, nil
}

// Golfer looks up a golfer in the tournament field.
func (l *Ledger) Golfer(id uuid.UUID) (models.Golfer, bool) {
	g, ok := l.golfers[id]
	return g, ok
}

// Golfers returns the full tournament field, unordered.
func (l *Ledger) Golfers() []models.Golfer {
	out := make([]models.Golfer, 0, len(l.golfers))
	for _, g := range l.golfers {
		out = append(out, g)
	}
	return out
}

// BestAvailable returns the undrafted field sorted by world ranking: lowest
// rank first, unranked golfers after all ranked ones, ties broken by
// ingestion order.
func (l *Ledger) BestAvailable(ctx context.Context) ([]models.Golfer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureFreshLocked(ctx); err != nil {
		return nil, err
	}
	avail := make([]models.Golfer, 0, len(l.golfers))
	for _, g := range l.golfers {
		if !l.drafted[g.ID] {
			avail = append(avail, g)
		}
	}
	sort.Slice(avail, func(i, j int) bool {
		a, b := avail[i], avail[j]
		if a.Ranked() != b.Ranked() {
			return a.Ranked()
		}
		if a.Ranked() && a.WGR != b.WGR {
			return a.WGR < b.WGR
		}
		return a.Seq < b.Seq
	})
	return avail, nil
}

// FilterDrafted returns the given golfer IDs with already-drafted entries
// removed, preserving order. Stored pick lists go stale as picks land; this
// is the lazy read-time filter applied at selection time.
func (l *Ledger) FilterDrafted(ctx context.Context, golfers []uuid.UUID) ([]uuid.UUID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureFreshLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(golfers))
	for _, id := range golfers {
		if !l.drafted[id] {
			out = append(out, id)
		}
	}
	return out, nil
}
