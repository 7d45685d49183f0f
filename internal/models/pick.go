package models

import (
	"time"

	"github.com/google/uuid"
)

// PickOrderEntry is one slot in the full draft order: the participant on the
// clock for a given round. The overall sequence index is the slot's position
// in the expanded order.
type PickOrderEntry struct {
	Participant uuid.UUID `json:"participant"`
	Round       int       `json:"round"`
}

// Pick is a committed draft pick. Picks are append-only; the only mutation
// ever applied to the sequence is removal of the last entry via admin undo.
type Pick struct {
	SequenceIndex   int       `json:"sequence_index"`
	Participant     uuid.UUID `json:"participant"`
	Golfer          uuid.UUID `json:"golfer"`
	Timestamp       time.Time `json:"timestamp"`
	ClientTimestamp time.Time `json:"client_timestamp"`
}

// PickSource records how an automatic pick was selected, so observers can
// distinguish a pick-list pick from a ranking fallback.
type PickSource string

const (
	PickSourceUser     PickSource = "user"
	PickSourcePickList PickSource = "pick_list"
	PickSourceWGR      PickSource = "wgr"
)

// DraftState is a consistent snapshot of the draft: the immutable order plus
// the committed picks.
type DraftState struct {
	PickOrder []PickOrderEntry `json:"pick_order"`
	Picks     []Pick           `json:"picks"`
}

// NextIndex returns the sequence index of the next pick to be made.
func (d DraftState) NextIndex() int {
	return len(d.Picks)
}

// IsComplete reports whether every slot in the order has been filled.
func (d DraftState) IsComplete() bool {
	return len(d.Picks) == len(d.PickOrder)
}

// CurrentEntry returns the order entry on the clock, or false if the draft
// is complete.
func (d DraftState) CurrentEntry() (PickOrderEntry, bool) {
	if d.IsComplete() {
		return PickOrderEntry{}, false
	}
	return d.PickOrder[d.NextIndex()], true
}
