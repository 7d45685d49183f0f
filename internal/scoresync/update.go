package scoresync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/golfdraft/golfdraft/internal/models"
)

// validPars are the course pars a feed may report.
var validPars = map[int]bool{70: true, 71: true, 72: true, 73: true}

// FeedScore is one raw day score from the feed: a number relative to par or
// the missed-cut marker. The feed encodes missed cuts as the string "MC".
type FeedScore struct {
	Value     int
	MissedCut bool
}

// UnmarshalJSON accepts either a number or the literal "MC".
func (s *FeedScore) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str != "MC" {
			return fmt.Errorf("unexpected score marker %q", str)
		}
		s.MissedCut = true
		s.Value = 0
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("score must be a number or \"MC\": %w", err)
	}
	s.Value = n
	return nil
}

// MarshalJSON mirrors UnmarshalJSON.
func (s FeedScore) MarshalJSON() ([]byte, error) {
	if s.MissedCut {
		return json.Marshal("MC")
	}
	return json.Marshal(s.Value)
}

// FeedGolfer is one golfer's row in the raw feed.
type FeedGolfer struct {
	Name   string      `json:"golfer"`
	Day    int         `json:"day"`
	Scores []FeedScore `json:"scores"`
}

// Feed is a raw tournament result as read from the score source.
type Feed struct {
	Par     int          `json:"par"`
	Golfers []FeedGolfer `json:"golfers"`
}

// Reader fetches a raw tournament result.
type Reader interface {
	Read(ctx context.Context, url string) (*Feed, error)
}

// Store is what the sync run needs from persistence.
type Store interface {
	EnsureGolfers(ctx context.Context, names []string) error
	LoadGolfers(ctx context.Context) ([]models.Golfer, error)
	LoadScoreOverrides(ctx context.Context) ([]models.ScoreOverride, error)
	SaveScores(ctx context.Context, scores []models.GolferScore) error
}

// Publisher announces a completed sync. Best effort.
type Publisher interface {
	ScoresUpdated(ctx context.Context) error
}

// Validate applies the feed sanity checks: a plausible par, real golfer
// names, a full set of day scores, and a day counter within the tournament.
func Validate(feed *Feed) error {
	if feed.Par != 0 && !validPars[feed.Par] {
		return fmt.Errorf("invalid par %d", feed.Par)
	}
	for _, g := range feed.Golfers {
		if g.Name == "" || g.Name == "-" {
			return fmt.Errorf("invalid golfer name %q", g.Name)
		}
		if len(g.Scores) != models.NumDays {
			return fmt.Errorf("golfer %s has %d scores, want %d", g.Name, len(g.Scores), models.NumDays)
		}
		if g.Day < 0 || g.Day > models.NumDays {
			return fmt.Errorf("golfer %s has invalid day %d", g.Name, g.Day)
		}
	}
	return nil
}

// MergeOverrides layers admin corrections over the feed scores. An override
// replaces only the fields it sets.
func MergeOverrides(scores []models.GolferScore, overrides []models.ScoreOverride) []models.GolferScore {
	byGolfer := make(map[uuid.UUID]models.ScoreOverride, len(overrides))
	for _, o := range overrides {
		byGolfer[o.Golfer] = o
	}

	out := make([]models.GolferScore, len(scores))
	for i, s := range scores {
		out[i] = s
		o, ok := byGolfer[s.Golfer]
		if !ok {
			continue
		}
		if o.Day != nil {
			out[i].Day = *o.Day
		}
		if o.Scores != nil {
			out[i].Scores = o.Scores
		}
	}
	return out
}

// Run performs one full sync: read, validate, seed missing golfers, map
// names to IDs, merge overrides, persist, announce.
func Run(ctx context.Context, reader Reader, url string, store Store, publisher Publisher) error {
	feed, err := reader.Read(ctx, url)
	if err != nil {
		return fmt.Errorf("read score feed: %w", err)
	}
	if err := Validate(feed); err != nil {
		return fmt.Errorf("validate score feed: %w", err)
	}

	names := make([]string, len(feed.Golfers))
	for i, g := range feed.Golfers {
		names[i] = g.Name
	}
	if err := store.EnsureGolfers(ctx, names); err != nil {
		return fmt.Errorf("ensure golfers: %w", err)
	}

	golfers, err := store.LoadGolfers(ctx)
	if err != nil {
		return fmt.Errorf("load golfers: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(golfers))
	for _, g := range golfers {
		byName[g.Name] = g.ID
	}

	scores := make([]models.GolferScore, 0, len(feed.Golfers))
	for _, g := range feed.Golfers {
		id, ok := byName[g.Name]
		if !ok {
			return fmt.Errorf("golfer %q missing after ensure", g.Name)
		}
		days := make([]models.DayScore, len(g.Scores))
		for i, s := range g.Scores {
			days[i] = models.DayScore{Score: s.Value, MissedCut: s.MissedCut}
		}
		scores = append(scores, models.GolferScore{Golfer: id, Day: g.Day, Scores: days})
	}

	overrides, err := store.LoadScoreOverrides(ctx)
	if err != nil {
		return fmt.Errorf("load score overrides: %w", err)
	}
	final := MergeOverrides(scores, overrides)
	if len(final) == 0 {
		return fmt.Errorf("no scores to save")
	}

	if err := store.SaveScores(ctx, final); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}
	log.Info().Int("golfers", len(final)).Int("overrides", len(overrides)).Msg("scores updated")

	if publisher != nil {
		if err := publisher.ScoresUpdated(ctx); err != nil {
			log.Error().Err(err).Msg("announce score update")
		}
	}
	return nil
}
