package autopick

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/golfdraft/golfdraft/internal/draft"
)

const (
	// DefaultSettleDelay is the debounce applied after a triggering event
	// (a commit or an admin action) before re-evaluating, so the scheduler
	// never races the state it was just told about.
	DefaultSettleDelay = 500 * time.Millisecond
	// DefaultIdleRecheck is the safety re-check interval: the scheduler
	// re-evaluates this long after startup and after every quiet period, to
	// recover from missed triggers.
	DefaultIdleRecheck = 5 * time.Second
)

// Scheduler keeps the draft moving when the participant on the clock is
// flagged for automatic play. It is a recurring check, not a one-shot timer:
// every commit and admin action pokes it, and evaluation is idempotent
// because the ledger's commit atomicity makes a redundant run a no-op.
type Scheduler struct {
	app    *draft.App
	clock  clockwork.Clock
	wakeCh chan struct{}

	settleDelay time.Duration
	idleRecheck time.Duration
}

// NewScheduler creates a scheduler over the draft app. Pass
// clockwork.NewRealClock() in production and a FakeClock in tests.
func NewScheduler(app *draft.App, clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		app:         app,
		clock:       clock,
		wakeCh:      make(chan struct{}, 1),
		settleDelay: DefaultSettleDelay,
		idleRecheck: DefaultIdleRecheck,
	}
}

// Poke schedules a re-evaluation after the settle delay. Safe to call from
// any goroutine; redundant pokes coalesce.
func (s *Scheduler) Poke() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Run loops until ctx is done, evaluating after each poke (debounced) and on
// the idle recheck interval. It never holds the commit lock while waiting.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().
		Dur("settle_delay", s.settleDelay).
		Dur("idle_recheck", s.idleRecheck).
		Msg("auto-pick scheduler started")

	timer := s.clock.NewTimer(s.idleRecheck)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("auto-pick scheduler shutting down")
			return nil
		case <-s.wakeCh:
			// Debounce: a fresh poke restarts the settle window.
			timer.Reset(s.settleDelay)
		case <-timer.Chan():
			s.Evaluate(ctx)
			timer.Reset(s.idleRecheck)
		}
	}
}

// Evaluate runs one "should I act now" check. It commits at most one pick,
// and only when the draft is running and the participant on the clock is
// flagged automatic. All stall conditions are benign no-ops.
func (s *Scheduler) Evaluate(ctx context.Context) {
	state, err := s.app.AppState(ctx)
	if err != nil {
		log.Error().Err(err).Msg("auto-pick: load app state")
		return
	}
	if !state.DraftHasStarted || state.IsDraftPaused {
		log.Debug().Msg("auto-pick: draft not running")
		return
	}

	entry, index, ok, err := s.app.Ledger().CurrentTurn(ctx)
	if err != nil {
		log.Error().Err(err).Msg("auto-pick: read current turn")
		return
	}
	if !ok {
		log.Debug().Msg("auto-pick: draft complete")
		return
	}
	if !state.IsAutoPick(entry.Participant) {
		log.Info().
			Str("participant", entry.Participant.String()).
			Int("index", index).
			Msg("auto-pick: participant not flagged; waiting")
		return
	}

	log.Info().
		Str("participant", entry.Participant.String()).
		Int("index", index).
		Msg("auto-pick: making pick")

	if err := s.pick(ctx, entry.Participant, index); err == nil {
		return
	} else if errors.Is(err, draft.ErrNotRunning) {
		return
	} else {
		log.Warn().Err(err).Msg("auto-pick: commit failed; retrying with fresh selection")
	}

	// One immediate retry against freshly read state, in case the fallback
	// golfer was drafted out from under us.
	entry, index, ok, err = s.app.Ledger().CurrentTurn(ctx)
	if err != nil || !ok || !state.IsAutoPick(entry.Participant) {
		return
	}
	if err := s.pick(ctx, entry.Participant, index); err != nil && !errors.Is(err, draft.ErrNotRunning) {
		log.Error().
			Err(err).
			Str("participant", entry.Participant.String()).
			Int("index", index).
			Msg("auto-pick: retry failed; draft needs operator attention")
	}
}

func (s *Scheduler) pick(ctx context.Context, participant uuid.UUID, index int) error {
	pick, source, err := s.app.MakePickListPick(ctx, participant, index, uuid.Nil)
	if err != nil {
		return err
	}
	log.Info().
		Str("participant", participant.String()).
		Str("golfer", pick.Golfer.String()).
		Str("source", string(source)).
		Int("index", pick.SequenceIndex).
		Msg("auto-pick: pick committed")
	return nil
}
