package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/golfdraft/golfdraft/internal/models"
)

// Type identifies a draft event on the wire. The change:* names are the
// channel names the web clients listen on.
type Type string

const (
	TypeDraftChanged    Type = "change:draft"
	TypeAppStateChanged Type = "change:appstate"
	TypeScoresChanged   Type = "change:scores"
	TypeDraftCompleted  Type = "draft:complete"
	TypeForceRefresh    Type = "action:forcerefresh"
)

// Event is the envelope broadcast to websocket clients and published to the
// message bus.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New wraps a payload in an event envelope.
func New(t Type, payload any) (Event, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		data = b
	}
	return Event{
		ID:        uuid.New(),
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}, nil
}

// DraftChangedPayload carries the full post-commit draft state, mirroring
// what a page load would render.
type DraftChangedPayload struct {
	Draft     models.DraftState `json:"draft"`
	Pick      *models.Pick      `json:"pick,omitempty"`
	Undone    *models.Pick      `json:"undone,omitempty"`
	Source    models.PickSource `json:"source,omitempty"`
	ProxyFor  *uuid.UUID        `json:"proxy_for,omitempty"`
	NextIndex int               `json:"next_index"`
	Complete  bool              `json:"complete"`
}

// AppStateChangedPayload carries the full app state after an admin action.
type AppStateChangedPayload struct {
	AppState models.AppState `json:"app_state"`
}

// ScoresChangedPayload announces a fresh score sync.
type ScoresChangedPayload struct {
	LastUpdated time.Time `json:"last_updated"`
}
