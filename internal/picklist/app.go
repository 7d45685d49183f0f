package picklist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/golfdraft/golfdraft/internal/models"
)

// Store is the persistence collaborator for pick lists. A nil list means the
// participant never saved one.
type Store interface {
	LoadPickList(ctx context.Context, participant uuid.UUID) ([]uuid.UUID, error)
	SavePickList(ctx context.Context, participant uuid.UUID, golfers []uuid.UUID) error
}

// App handles pick list load/save and name resolution.
type App struct {
	store Store
}

// NewApp creates a pick list App.
func NewApp(store Store) *App {
	return &App{store: store}
}

// PickList returns a participant's saved pick list, or nil if unset.
func (a *App) PickList(ctx context.Context, participant uuid.UUID) ([]uuid.UUID, error) {
	list, err := a.store.LoadPickList(ctx, participant)
	if err != nil {
		return nil, fmt.Errorf("load pick list: %w", err)
	}
	return list, nil
}

// UpdatePickList replaces a participant's pick list wholesale with the given
// golfer IDs.
func (a *App) UpdatePickList(ctx context.Context, participant uuid.UUID, golfers []uuid.UUID) error {
	if err := a.store.SavePickList(ctx, participant, golfers); err != nil {
		return fmt.Errorf("save pick list: %w", err)
	}
	log.Info().
		Str("participant", participant.String()).
		Int("golfers", len(golfers)).
		Msg("pick list updated")
	return nil
}

// UpdatePickListFromNames resolves golfer names and, only on a complete
// resolution, saves the resulting list. An incomplete resolution leaves the
// stored pick list untouched and carries suggestions back to the caller.
func (a *App) UpdatePickListFromNames(ctx context.Context, participant uuid.UUID, names []string, known []models.Golfer) (Resolution, error) {
	res := ResolveNames(names, known)
	if !res.Completed {
		log.Info().
			Str("participant", participant.String()).
			Int("unmatched", len(res.Suggestions)).
			Msg("pick list names unresolved; nothing saved")
		return res, nil
	}
	if err := a.store.SavePickList(ctx, participant, res.Golfers); err != nil {
		return Resolution{}, fmt.Errorf("save pick list: %w", err)
	}
	log.Info().
		Str("participant", participant.String()).
		Int("golfers", len(res.Golfers)).
		Msg("pick list resolved from names and saved")
	return res, nil
}
