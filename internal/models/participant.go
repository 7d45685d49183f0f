package models

import (
	"github.com/google/uuid"
)

// Participant represents a league member taking part in the draft.
type Participant struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// AppState holds the mutable draft-wide control flags. It is persisted as a
// single row and mutated only through admin actions.
type AppState struct {
	DraftHasStarted      bool               `json:"draft_has_started"`
	IsDraftPaused        bool               `json:"is_draft_paused"`
	AllowClock           bool               `json:"allow_clock"`
	AutoPickParticipants map[uuid.UUID]bool `json:"auto_pick_participants"`
}

// IsAutoPick reports whether the given participant is flagged for
// automatic play.
func (s AppState) IsAutoPick(participant uuid.UUID) bool {
	return s.AutoPickParticipants[participant]
}

// Clone returns a deep copy so callers can mutate flags without aliasing
// the stored state.
func (s AppState) Clone() AppState {
	out := s
	out.AutoPickParticipants = make(map[uuid.UUID]bool, len(s.AutoPickParticipants))
	for id, v := range s.AutoPickParticipants {
		out.AutoPickParticipants[id] = v
	}
	return out
}
