package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/golfdraft/golfdraft/internal/draft"
	"github.com/golfdraft/golfdraft/internal/models"
)

// Store persists chat messages.
type Store interface {
	CreateChatMessage(ctx context.Context, msg models.ChatMessage) error
}

// Bot narrates draft activity into the chat room. Everything here is
// fire-and-forget: failures are logged and never surface to the pick path.
type Bot struct {
	store        Store
	ledger       *draft.Ledger
	participants map[uuid.UUID]models.Participant
}

// NewBot creates the chat bot. participants is the fixed draft roster.
func NewBot(store Store, ledger *draft.Ledger, participants []models.Participant) *Bot {
	byID := make(map[uuid.UUID]models.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}
	return &Bot{store: store, ledger: ledger, participants: byID}
}

var _ draft.Notifier = (*Bot)(nil)

// PickCommitted announces a pick, labeling automatic and proxy picks, then
// tells the next participant they are up.
func (b *Bot) PickCommitted(ctx context.Context, pick models.Pick, state models.DraftState, source models.PickSource, proxyFor *uuid.UUID) {
	message := fmt.Sprintf("%s picks %s", b.participantName(pick.Participant), b.golferName(pick.Golfer))
	switch {
	case proxyFor != nil && source == models.PickSourcePickList:
		message += fmt.Sprintf(" (from pick list, proxy from %s)", b.participantName(*proxyFor))
	case proxyFor != nil && source == models.PickSourceWGR:
		message += fmt.Sprintf(" (best available WGR, proxy from %s)", b.participantName(*proxyFor))
	case proxyFor != nil:
		message += fmt.Sprintf(" (proxy from %s)", b.participantName(*proxyFor))
	case source == models.PickSourcePickList:
		message += " (auto-draft from pick list)"
	case source == models.PickSourceWGR:
		message += " (auto-draft best available WGR)"
	}
	b.send(ctx, message)
	b.announceNext(ctx, state)
}

// PickReverted announces an admin undo.
func (b *Bot) PickReverted(ctx context.Context, pick models.Pick, state models.DraftState) {
	b.send(ctx, fmt.Sprintf("PICK REVERTED: %s picks %s",
		b.participantName(pick.Participant), b.golferName(pick.Golfer)))
	b.announceNext(ctx, state)
}

func (b *Bot) announceNext(ctx context.Context, state models.DraftState) {
	if len(state.PickOrder) == 0 {
		// Zero-value snapshot from a failed state load. Whose turn it is
		// is unknown, so say nothing rather than announce a false finish.
		return
	}
	if entry, ok := state.CurrentEntry(); ok {
		b.send(ctx, fmt.Sprintf("%s, you're up!", b.participantName(entry.Participant)))
	} else {
		b.send(ctx, "Draft is complete!")
	}
}

func (b *Bot) send(ctx context.Context, message string) {
	msg := models.ChatMessage{
		ID:        uuid.New(),
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := b.store.CreateChatMessage(ctx, msg); err != nil {
		log.Error().Err(err).Str("message", message).Msg("chat bot: persist message")
		return
	}
	log.Info().Str("message", message).Msg("chat bot")
}

func (b *Bot) participantName(id uuid.UUID) string {
	if p, ok := b.participants[id]; ok {
		return p.Name
	}
	return id.String()
}

func (b *Bot) golferName(id uuid.UUID) string {
	if g, ok := b.ledger.Golfer(id); ok {
		return g.Name
	}
	return id.String()
}
