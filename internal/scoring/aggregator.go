package scoring

import (
	"sort"

	"github.com/google/uuid"

	"github.com/golfdraft/golfdraft/internal/models"
)

// CountedScoresPerDay is the "best of" count: how many of a participant's
// golfer scores count toward each day's total.
const CountedScoresPerDay = 2

// GolferDayScore is one golfer's contribution to one day of a participant's
// scorecard. Used marks whether the score counted toward the day total.
type GolferDayScore struct {
	Golfer    uuid.UUID `json:"golfer"`
	Score     int       `json:"score"`
	MissedCut bool      `json:"missed_cut"`
	Used      bool      `json:"used"`
}

// DayResult is one day of a participant's scorecard: every golfer's score
// sorted best-first, with the counted subset flagged.
type DayResult struct {
	Day    int              `json:"day"`
	Scores []GolferDayScore `json:"scores"`
	Total  int              `json:"total"`
}

// GolferTotal is a golfer's raw sum across all days, informational only.
type GolferTotal struct {
	Golfer uuid.UUID `json:"golfer"`
	Total  int       `json:"total"`
}

// Standing is one participant's aggregated result.
type Standing struct {
	Participant  uuid.UUID     `json:"participant"`
	Days         []DayResult   `json:"days"`
	GolferTotals []GolferTotal `json:"golfer_totals"`
	Total        int           `json:"total"`
	Rank         int           `json:"rank"`
	Tied         bool          `json:"tied"`
}

// Aggregate derives per-participant standings from pick assignments and raw
// per-golfer daily scores. It is pure: identical inputs always produce
// identical output, so it is recomputed from scratch on every score refresh.
//
// Per day, a participant's golfer scores are sorted ascending (missed cuts
// last) and the lowest CountedScoresPerDay are summed as the day total.
// Ranking is ascending by overall total; equal totals share an ordinal rank
// and are marked tied.
//
// A missed cut carries no stroke count of its own, so when one is counted it
// contributes the worst score anyone posted that day. Sitting out a round
// never beats playing it.
func Aggregate(picks map[uuid.UUID][]uuid.UUID, scores map[uuid.UUID]models.GolferScore) []Standing {
	worst := worstScoreByDay(scores)
	standings := make([]Standing, 0, len(picks))
	for participant, golfers := range picks {
		standings = append(standings, participantStanding(participant, golfers, scores, worst))
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Total != standings[j].Total {
			return standings[i].Total < standings[j].Total
		}
		return standings[i].Participant.String() < standings[j].Participant.String()
	})

	for i := range standings {
		if i > 0 && standings[i].Total == standings[i-1].Total {
			standings[i].Rank = standings[i-1].Rank
			standings[i].Tied = true
			standings[i-1].Tied = true
		} else {
			standings[i].Rank = i + 1
		}
	}
	return standings
}

// worstScoreByDay finds the highest score posted by any golfer who made the
// cut, per day. Days where the whole field missed stay at zero.
func worstScoreByDay(scores map[uuid.UUID]models.GolferScore) [models.NumDays]int {
	var worst [models.NumDays]int
	for _, gs := range scores {
		for day, ds := range gs.Scores {
			if day >= models.NumDays || ds.MissedCut {
				continue
			}
			if ds.Score > worst[day] {
				worst[day] = ds.Score
			}
		}
	}
	return worst
}

func participantStanding(participant uuid.UUID, golfers []uuid.UUID, scores map[uuid.UUID]models.GolferScore, worst [models.NumDays]int) Standing {
	s := Standing{Participant: participant}

	for day := 0; day < models.NumDays; day++ {
		result := DayResult{Day: day}
		for _, g := range golfers {
			gs, ok := scores[g]
			if !ok || day >= len(gs.Scores) {
				continue
			}
			score := gs.Scores[day].Score
			if gs.Scores[day].MissedCut {
				score = worst[day]
			}
			result.Scores = append(result.Scores, GolferDayScore{
				Golfer:    g,
				Score:     score,
				MissedCut: gs.Scores[day].MissedCut,
			})
		}

		// Best scores first; missed cuts sort as worst regardless of the
		// value the feed recorded for them.
		sort.SliceStable(result.Scores, func(i, j int) bool {
			a, b := result.Scores[i], result.Scores[j]
			if a.MissedCut != b.MissedCut {
				return !a.MissedCut
			}
			return a.Score < b.Score
		})

		used := CountedScoresPerDay
		if used > len(result.Scores) {
			used = len(result.Scores)
		}
		for i := 0; i < used; i++ {
			result.Scores[i].Used = true
			result.Total += result.Scores[i].Score
		}
		s.Days = append(s.Days, result)
		s.Total += result.Total
	}

	for _, g := range golfers {
		gs, ok := scores[g]
		if !ok {
			continue
		}
		total := 0
		for day, ds := range gs.Scores {
			if ds.MissedCut && day < models.NumDays {
				total += worst[day]
				continue
			}
			total += ds.Score
		}
		s.GolferTotals = append(s.GolferTotals, GolferTotal{Golfer: g, Total: total})
	}
	return s
}

// PicksByParticipant groups committed picks into the pick-assignment shape
// Aggregate consumes.
func PicksByParticipant(picks []models.Pick) map[uuid.UUID][]uuid.UUID {
	out := make(map[uuid.UUID][]uuid.UUID)
	for _, p := range picks {
		out[p.Participant] = append(out[p.Participant], p.Golfer)
	}
	return out
}
