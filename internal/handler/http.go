package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/golfdraft/golfdraft/internal/draft"
	"github.com/golfdraft/golfdraft/internal/events"
	"github.com/golfdraft/golfdraft/internal/gateway"
	"github.com/golfdraft/golfdraft/internal/models"
	"github.com/golfdraft/golfdraft/internal/picklist"
	"github.com/golfdraft/golfdraft/internal/scoring"
)

// ScoreSource loads the latest synced per-golfer scores.
type ScoreSource interface {
	LoadScores(ctx context.Context) (map[uuid.UUID]models.GolferScore, error)
}

// Handler provides the HTTP API for the draft server.
type Handler struct {
	draft        *draft.App
	pickLists    *picklist.App
	scores       ScoreSource
	participants []models.Participant
	hub          *gateway.Hub
	bus          *events.Bus
}

// NewHandler creates the HTTP handler. participants is the fixed roster
// loaded at boot.
func NewHandler(draftApp *draft.App, pickLists *picklist.App, scores ScoreSource, participants []models.Participant, hub *gateway.Hub, bus *events.Bus) *Handler {
	return &Handler{
		draft:        draftApp,
		pickLists:    pickLists,
		scores:       scores,
		participants: participants,
		hub:          hub,
		bus:          bus,
	}
}

// APIResponse is the standard response envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router builds the chi router with all API routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Get("/ws", h.hub.ServeWS)

	r.Route("/draft", func(r chi.Router) {
		r.Get("/", h.GetDraft)
		r.Get("/bestAvailable", h.GetBestAvailable)
		r.Get("/pickList", h.GetPickList)
		r.Put("/pickList", h.UpdatePickList)
		r.Post("/picks", h.MakePick)
		r.Post("/pickListPick", h.MakePickListPick)
		r.Put("/autoPick", h.SetAutoPick)
	})

	r.Get("/participants", h.GetParticipants)
	r.Get("/golfers", h.GetGolfers)
	r.Get("/appState", h.GetAppState)
	r.Get("/standings", h.GetStandings)

	r.Route("/admin", func(r chi.Router) {
		r.Put("/start", h.StartDraft)
		r.Put("/pause", h.PauseDraft)
		r.Put("/autoPickUsers", h.AdminSetAutoPick)
		r.Delete("/lastPick", h.UndoLastPick)
		r.Put("/forceRefresh", h.ForceRefresh)
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Participant", "X-Request-ID"},
	})
	return c.Handler(r)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{Success: false, Error: err.Error()})
}

// writePickError maps draft errors to HTTP statuses: validation failures and
// not-running conditions are client errors, anything else is a 500.
func (h *Handler) writePickError(w http.ResponseWriter, err error) {
	if _, ok := draft.IsPickError(err); ok {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	switch {
	case errors.Is(err, draft.ErrNotRunning),
		errors.Is(err, draft.ErrDraftComplete),
		errors.Is(err, draft.ErrNothingToUndo):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		log.Error().Err(err).Msg("draft operation failed")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

// actor resolves the requesting participant from the X-Participant header,
// falling back to the given participant when the header is absent.
func actor(r *http.Request, fallback uuid.UUID) uuid.UUID {
	raw := r.Header.Get("X-Participant")
	if raw == "" {
		return fallback
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fallback
	}
	return id
}

// HealthCheck reports server liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"status":      "healthy",
		"connections": h.hub.ConnectionCount(),
	})
}

// GetDraft returns the full draft state: order, picks, and the current turn.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	state, err := h.draft.Ledger().State(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load draft state")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	resp := map[string]interface{}{
		"pick_order": state.PickOrder,
		"picks":      state.Picks,
		"next_index": state.NextIndex(),
		"complete":   state.IsComplete(),
	}
	if entry, _, ok, err := h.draft.Ledger().CurrentTurn(r.Context()); err == nil && ok {
		resp["current_turn"] = entry
	}
	h.writeSuccess(w, resp)
}

// GetParticipants returns the fixed participant roster.
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.participants)
}

// GetGolfers returns the golfer field.
func (h *Handler) GetGolfers(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.draft.Ledger().Golfers())
}

// GetBestAvailable returns undrafted golfers ordered by world ranking.
func (h *Handler) GetBestAvailable(w http.ResponseWriter, r *http.Request) {
	golfers, err := h.draft.Ledger().BestAvailable(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load best available")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	h.writeSuccess(w, golfers)
}

// GetAppState returns the draft control flags.
func (h *Handler) GetAppState(w http.ResponseWriter, r *http.Request) {
	state, err := h.draft.AppState(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load app state")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	h.writeSuccess(w, state)
}

// GetPickList returns the requesting participant's saved pick list.
func (h *Handler) GetPickList(w http.ResponseWriter, r *http.Request) {
	participant := actor(r, uuid.Nil)
	if participant == uuid.Nil {
		if raw := r.URL.Query().Get("participant"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				participant = id
			}
		}
	}
	if participant == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, errors.New("participant required"))
		return
	}
	list, err := h.pickLists.PickList(r.Context(), participant)
	if err != nil {
		log.Error().Err(err).Msg("load pick list")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	h.writeSuccess(w, map[string]interface{}{"pick_list": list})
}

type updatePickListRequest struct {
	Participant   uuid.UUID   `json:"participant"`
	PickList      []uuid.UUID `json:"pick_list"`
	PickListNames []string    `json:"pick_list_names"`
}

// UpdatePickList replaces a participant's pick list. The body carries either
// resolved golfer IDs or raw names; the name path runs the resolver and an
// incomplete resolution answers 300 with per-name suggestions, saving
// nothing.
func (h *Handler) UpdatePickList(w http.ResponseWriter, r *http.Request) {
	var req updatePickListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	participant := req.Participant
	if participant == uuid.Nil {
		participant = actor(r, uuid.Nil)
	}
	if participant == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, errors.New("participant required"))
		return
	}

	if len(req.PickListNames) > 0 {
		res, err := h.pickLists.UpdatePickListFromNames(r.Context(), participant, req.PickListNames, h.draft.Ledger().Golfers())
		if err != nil {
			log.Error().Err(err).Msg("update pick list from names")
			h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
			return
		}
		if !res.Completed {
			h.writeJSON(w, http.StatusMultipleChoices, APIResponse{
				Success: false,
				Data:    res,
				Error:   "some names could not be resolved",
			})
			return
		}
		h.writeSuccess(w, map[string]interface{}{"pick_list": res.Golfers})
		return
	}

	if err := h.pickLists.UpdatePickList(r.Context(), participant, req.PickList); err != nil {
		log.Error().Err(err).Msg("update pick list")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	h.writeSuccess(w, map[string]interface{}{"pick_list": req.PickList})
}

type makePickRequest struct {
	Participant     uuid.UUID `json:"participant"`
	Golfer          uuid.UUID `json:"golfer"`
	SequenceIndex   int       `json:"sequence_index"`
	ClientTimestamp time.Time `json:"client_timestamp"`
}

// MakePick commits a manual pick.
func (h *Handler) MakePick(w http.ResponseWriter, r *http.Request) {
	var req makePickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.Participant == uuid.Nil || req.Golfer == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, errors.New("participant and golfer required"))
		return
	}
	pick, err := h.draft.MakePick(r.Context(), draft.CommitRequest{
		Participant:     req.Participant,
		Golfer:          req.Golfer,
		SequenceIndex:   req.SequenceIndex,
		ClientTimestamp: req.ClientTimestamp,
	}, actor(r, req.Participant))
	if err != nil {
		h.writePickError(w, err)
		return
	}
	h.writeSuccess(w, pick)
}

type pickListPickRequest struct {
	Participant   uuid.UUID `json:"participant"`
	SequenceIndex int       `json:"sequence_index"`
}

// MakePickListPick commits the best selection for the participant on the
// clock: pick list head, else best available by ranking. Used for proxy
// picks made on another participant's behalf.
func (h *Handler) MakePickListPick(w http.ResponseWriter, r *http.Request) {
	var req pickListPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.Participant == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, errors.New("participant required"))
		return
	}
	pick, source, err := h.draft.MakePickListPick(r.Context(), req.Participant, req.SequenceIndex, actor(r, req.Participant))
	if err != nil {
		h.writePickError(w, err)
		return
	}
	h.writeSuccess(w, map[string]interface{}{
		"pick":   pick,
		"source": source,
	})
}

type autoPickRequest struct {
	Participant uuid.UUID `json:"participant"`
	AutoPick    bool      `json:"auto_pick"`
}

// SetAutoPick toggles the requesting participant's auto-pick flag.
func (h *Handler) SetAutoPick(w http.ResponseWriter, r *http.Request) {
	var req autoPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	participant := actor(r, req.Participant)
	if participant == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, errors.New("participant required"))
		return
	}
	state, err := h.draft.SetAutoPick(r.Context(), participant, req.AutoPick)
	if err != nil {
		log.Error().Err(err).Msg("set auto pick")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	h.writeSuccess(w, state)
}

// GetStandings computes and returns the tournament standings.
func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	state, err := h.draft.Ledger().State(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load draft state")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	scores, err := h.scores.LoadScores(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load scores")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	standings := scoring.Aggregate(scoring.PicksByParticipant(state.Picks), scores)
	h.writeSuccess(w, standings)
}

// StartDraft marks the draft as started.
func (h *Handler) StartDraft(w http.ResponseWriter, r *http.Request) {
	state, err := h.draft.UpdateAppState(r.Context(), func(s *models.AppState) {
		s.DraftHasStarted = true
	})
	if err != nil {
		log.Error().Err(err).Msg("start draft")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	h.writeSuccess(w, state)
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

// PauseDraft pauses or resumes the draft.
func (h *Handler) PauseDraft(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	state, err := h.draft.UpdateAppState(r.Context(), func(s *models.AppState) {
		s.IsDraftPaused = req.Paused
	})
	if err != nil {
		log.Error().Err(err).Msg("pause draft")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	h.writeSuccess(w, state)
}

// AdminSetAutoPick sets the auto-pick flag for any participant.
func (h *Handler) AdminSetAutoPick(w http.ResponseWriter, r *http.Request) {
	var req autoPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.Participant == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, errors.New("participant required"))
		return
	}
	state, err := h.draft.SetAutoPick(r.Context(), req.Participant, req.AutoPick)
	if err != nil {
		log.Error().Err(err).Msg("admin set auto pick")
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	h.writeSuccess(w, state)
}

// UndoLastPick removes the most recent pick.
func (h *Handler) UndoLastPick(w http.ResponseWriter, r *http.Request) {
	pick, err := h.draft.UndoLastPick(r.Context())
	if err != nil {
		h.writePickError(w, err)
		return
	}
	h.writeSuccess(w, pick)
}

// ForceRefresh tells every connected client to reload.
func (h *Handler) ForceRefresh(w http.ResponseWriter, r *http.Request) {
	ev, err := events.New(events.TypeForceRefresh, nil)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	h.bus.Publish(ev)
	h.writeSuccess(w, map[string]string{"status": "refresh requested"})
}
