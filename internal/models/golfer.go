package models

import (
	"github.com/google/uuid"
)

// UnknownWGR is the sentinel world ranking for golfers that do not appear in
// the world golf ranking feed. Unranked golfers sort after all ranked ones.
const UnknownWGR = -1

// Golfer represents a draftable golfer.
type Golfer struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	// WGR is the golfer's world ranking; lower is better. UnknownWGR means
	// the golfer is unranked.
	WGR int `json:"wgr"`
	// Seq is the ingestion order, used as a deterministic tie-breaker.
	Seq int `json:"seq"`
}

// Ranked reports whether the golfer carries a real world ranking.
func (g Golfer) Ranked() bool {
	return g.WGR != UnknownWGR
}
