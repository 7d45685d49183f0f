package draft

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/golfdraft/golfdraft/internal/events"
	"github.com/golfdraft/golfdraft/internal/models"
)

// ErrNotRunning means the draft is paused, not yet started, or already
// complete. It is a benign condition, not a failure: auto-pick evaluation
// treats it as a no-op and the HTTP layer reports it as a client error.
var ErrNotRunning = errors.New("draft is not running")

// PickListSource provides a participant's saved pick list, nil if unset.
type PickListSource interface {
	PickList(ctx context.Context, participant uuid.UUID) ([]uuid.UUID, error)
}

// AppStateStore persists the draft-wide control flags.
type AppStateStore interface {
	LoadAppState(ctx context.Context) (models.AppState, error)
	SaveAppState(ctx context.Context, state models.AppState) error
}

// Notifier receives post-commit notifications. Best effort: a notifier
// failure never blocks or reverses a commit.
type Notifier interface {
	PickCommitted(ctx context.Context, pick models.Pick, state models.DraftState, source models.PickSource, proxyFor *uuid.UUID)
	PickReverted(ctx context.Context, pick models.Pick, state models.DraftState)
}

// Poker wakes the auto-pick scheduler for re-evaluation.
type Poker interface {
	Poke()
}

// App coordinates the draft: it gates requests on the running state, drives
// commits through the ledger, and fans out events, chat messages, and
// scheduler pokes after the commit lock is released.
type App struct {
	ledger    *Ledger
	pickLists PickListSource
	appState  AppStateStore
	bus       *events.Bus
	notifier  Notifier
	poker     Poker
}

// NewApp wires the draft app. notifier and poker may be set later.
func NewApp(ledger *Ledger, pickLists PickListSource, appState AppStateStore, bus *events.Bus) *App {
	return &App{
		ledger:    ledger,
		pickLists: pickLists,
		appState:  appState,
		bus:       bus,
	}
}

// SetNotifier attaches the chat notifier.
func (a *App) SetNotifier(n Notifier) { a.notifier = n }

// SetPoker attaches the auto-pick scheduler.
func (a *App) SetPoker(p Poker) { a.poker = p }

// Ledger exposes the underlying state machine for read paths.
func (a *App) Ledger() *Ledger { return a.ledger }

// AppState returns the current control flags.
func (a *App) AppState(ctx context.Context) (models.AppState, error) {
	return a.appState.LoadAppState(ctx)
}

// ensureRunning fails with ErrNotRunning unless the draft is started,
// unpaused, and incomplete.
func (a *App) ensureRunning(ctx context.Context) error {
	state, err := a.appState.LoadAppState(ctx)
	if err != nil {
		return fmt.Errorf("load app state: %w", err)
	}
	if !state.DraftHasStarted || state.IsDraftPaused {
		return ErrNotRunning
	}
	_, _, ok, err := a.ledger.CurrentTurn(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotRunning
	}
	return nil
}

// MakePick commits a manual pick on behalf of actor. An actor picking for
// another participant is a proxy pick and is labeled as such downstream.
func (a *App) MakePick(ctx context.Context, req CommitRequest, actor uuid.UUID) (models.Pick, error) {
	if err := a.ensureRunning(ctx); err != nil {
		return models.Pick{}, err
	}
	pick, err := a.ledger.Commit(ctx, req)
	if err != nil {
		return models.Pick{}, err
	}
	var proxyFor *uuid.UUID
	if actor != pick.Participant {
		proxyFor = &actor
	}
	a.afterCommit(ctx, pick, models.PickSourceUser, proxyFor)
	return pick, nil
}

// MakePickListPick commits the best selection for the participant on the
// clock: the head of their drafted-filtered pick list, or the best available
// golfer by world ranking when the list is empty or unset. actor is the
// requesting participant for proxy picks; pass uuid.Nil for system picks.
func (a *App) MakePickListPick(ctx context.Context, participant uuid.UUID, sequenceIndex int, actor uuid.UUID) (models.Pick, models.PickSource, error) {
	if err := a.ensureRunning(ctx); err != nil {
		return models.Pick{}, "", err
	}
	golfer, source, err := a.Select(ctx, participant)
	if err != nil {
		return models.Pick{}, "", err
	}
	pick, err := a.ledger.Commit(ctx, CommitRequest{
		Participant:   participant,
		Golfer:        golfer,
		SequenceIndex: sequenceIndex,
	})
	if err != nil {
		return models.Pick{}, "", err
	}
	var proxyFor *uuid.UUID
	if actor != uuid.Nil && actor != participant {
		proxyFor = &actor
	}
	a.afterCommit(ctx, pick, source, proxyFor)
	return pick, source, nil
}

// Select applies the automatic selection policy for a participant: the head
// of their pick list after lazily filtering out drafted golfers, else the
// single best available golfer by ranking. The source reports which branch
// was taken.
func (a *App) Select(ctx context.Context, participant uuid.UUID) (uuid.UUID, models.PickSource, error) {
	list, err := a.pickLists.PickList(ctx, participant)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("load pick list: %w", err)
	}
	remaining, err := a.ledger.FilterDrafted(ctx, list)
	if err != nil {
		return uuid.Nil, "", err
	}
	if len(remaining) > 0 {
		return remaining[0], models.PickSourcePickList, nil
	}

	avail, err := a.ledger.BestAvailable(ctx)
	if err != nil {
		return uuid.Nil, "", err
	}
	if len(avail) == 0 {
		return uuid.Nil, "", fmt.Errorf("no golfers available")
	}
	return avail[0].ID, models.PickSourceWGR, nil
}

// UndoLastPick removes the last committed pick. Admin-only and forced: it
// does not require the draft to be running.
func (a *App) UndoLastPick(ctx context.Context) (models.Pick, error) {
	pick, err := a.ledger.Undo(ctx)
	if err != nil {
		return models.Pick{}, err
	}
	state, err := a.ledger.State(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load state after undo")
		state = models.DraftState{}
	}
	a.publishDraftChanged(events.DraftChangedPayload{
		Draft:     state,
		Undone:    &pick,
		NextIndex: state.NextIndex(),
		Complete:  state.IsComplete(),
	})
	if a.notifier != nil {
		a.notifier.PickReverted(ctx, pick, state)
	}
	a.poke()
	return pick, nil
}

// UpdateAppState applies an admin mutation to the control flags, broadcasts
// the change, and re-pokes the scheduler since pause/start state affects
// whether auto-picks should run.
func (a *App) UpdateAppState(ctx context.Context, mutate func(*models.AppState)) (models.AppState, error) {
	state, err := a.appState.LoadAppState(ctx)
	if err != nil {
		return models.AppState{}, fmt.Errorf("load app state: %w", err)
	}
	next := state.Clone()
	mutate(&next)
	if err := a.appState.SaveAppState(ctx, next); err != nil {
		return models.AppState{}, fmt.Errorf("save app state: %w", err)
	}

	ev, err := events.New(events.TypeAppStateChanged, events.AppStateChangedPayload{AppState: next})
	if err != nil {
		log.Error().Err(err).Msg("build appstate event")
	} else {
		a.bus.Publish(ev)
	}
	a.poke()
	return next, nil
}

// SetAutoPick toggles a participant's automatic-play flag.
func (a *App) SetAutoPick(ctx context.Context, participant uuid.UUID, autoPick bool) (models.AppState, error) {
	return a.UpdateAppState(ctx, func(s *models.AppState) {
		if s.AutoPickParticipants == nil {
			s.AutoPickParticipants = make(map[uuid.UUID]bool)
		}
		if autoPick {
			s.AutoPickParticipants[participant] = true
		} else {
			delete(s.AutoPickParticipants, participant)
		}
	})
}

// afterCommit runs the post-commit fan-out. The ledger lock is already
// released; none of this can roll back the pick.
func (a *App) afterCommit(ctx context.Context, pick models.Pick, source models.PickSource, proxyFor *uuid.UUID) {
	state, stateErr := a.ledger.State(ctx)
	if stateErr != nil {
		// Keep fanning out with an empty snapshot: the poke and the chat
		// message matter more than the payload detail, and the idle recheck
		// alone would drop the turn announcement. An empty snapshot looks
		// complete, so completion handling is gated on a clean load.
		log.Error().Err(stateErr).Msg("load state after commit")
		state = models.DraftState{}
	}
	complete := stateErr == nil && state.IsComplete()
	a.publishDraftChanged(events.DraftChangedPayload{
		Draft:     state,
		Pick:      &pick,
		Source:    source,
		ProxyFor:  proxyFor,
		NextIndex: state.NextIndex(),
		Complete:  complete,
	})
	if complete {
		if ev, err := events.New(events.TypeDraftCompleted, nil); err == nil {
			a.bus.Publish(ev)
		}
		log.Info().Int("picks", len(state.Picks)).Msg("draft complete")
	}
	if a.notifier != nil {
		a.notifier.PickCommitted(ctx, pick, state, source, proxyFor)
	}
	a.poke()
}

func (a *App) publishDraftChanged(payload events.DraftChangedPayload) {
	ev, err := events.New(events.TypeDraftChanged, payload)
	if err != nil {
		log.Error().Err(err).Msg("build draft event")
		return
	}
	a.bus.Publish(ev)
}

func (a *App) poke() {
	if a.poker != nil {
		a.poker.Poke()
	}
}
