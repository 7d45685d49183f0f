package models

import (
	"time"

	"github.com/google/uuid"
)

// NumDays is the number of scored days in a tournament.
const NumDays = 4

// DayScore is one golfer's score for a single tournament day, relative to
// par. MissedCut marks the sentinel "did not play" state; the stored Score
// still carries the value the score feed assigned for the day.
type DayScore struct {
	Score     int  `json:"score"`
	MissedCut bool `json:"missed_cut"`
}

// GolferScore holds one golfer's per-day scores for the tournament.
type GolferScore struct {
	Golfer uuid.UUID `json:"golfer"`
	// Day is the last day the feed reported as underway (0 before play starts).
	Day    int        `json:"day"`
	Scores []DayScore `json:"scores"`
}

// ScoreOverride is an admin correction layered over the score feed. Nil
// fields leave the feed value in place.
type ScoreOverride struct {
	Golfer uuid.UUID  `json:"golfer"`
	Day    *int       `json:"day,omitempty"`
	Scores []DayScore `json:"scores,omitempty"`
}

// ChatMessage is a persisted chat entry. Bot messages have no participant.
type ChatMessage struct {
	ID          uuid.UUID  `json:"id"`
	Participant *uuid.UUID `json:"participant,omitempty"`
	Message     string     `json:"message"`
	CreatedAt   time.Time  `json:"created_at"`
}
