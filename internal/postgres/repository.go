package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/golfdraft/golfdraft/internal/config"
	"github.com/golfdraft/golfdraft/internal/models"
)

// Repository is the PostgreSQL persistence collaborator. Every method is a
// single atomic statement (or transaction); sequencing them correctly is the
// caller's job.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository opens a connection pool and verifies connectivity.
func NewRepository(ctx context.Context, cfg config.PostgresConfig) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// RunMigrations creates the schema if needed.
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS participants (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			seq INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS golfers (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			wgr INT NOT NULL DEFAULT -1,
			seq INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pick_order (
			seq_index INT PRIMARY KEY,
			participant UUID NOT NULL REFERENCES participants(id),
			round INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS picks (
			seq_index INT PRIMARY KEY,
			participant UUID NOT NULL REFERENCES participants(id),
			golfer UUID NOT NULL UNIQUE REFERENCES golfers(id),
			ts TIMESTAMPTZ NOT NULL,
			client_ts TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS pick_lists (
			participant UUID NOT NULL REFERENCES participants(id),
			position INT NOT NULL,
			golfer UUID NOT NULL REFERENCES golfers(id),
			PRIMARY KEY (participant, position)
		)`,
		`CREATE TABLE IF NOT EXISTS app_state (
			singleton BOOL PRIMARY KEY DEFAULT TRUE CHECK (singleton),
			draft_has_started BOOL NOT NULL DEFAULT FALSE,
			is_draft_paused BOOL NOT NULL DEFAULT FALSE,
			allow_clock BOOL NOT NULL DEFAULT TRUE,
			auto_pick_participants JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS golfer_scores (
			golfer UUID PRIMARY KEY REFERENCES golfers(id),
			day INT NOT NULL DEFAULT 0,
			scores JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS score_overrides (
			golfer UUID PRIMARY KEY REFERENCES golfers(id),
			day INT,
			scores JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id UUID PRIMARY KEY,
			participant UUID REFERENCES participants(id),
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`INSERT INTO app_state (singleton) VALUES (TRUE) ON CONFLICT DO NOTHING`,
	}
	for _, m := range migrations {
		if _, err := r.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}
	log.Info().Msg("database migrations complete")
	return nil
}

// LoadParticipants returns the roster in seeding order.
func (r *Repository) LoadParticipants(ctx context.Context) ([]models.Participant, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM participants ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LoadGolfers returns the tournament field in ingestion order.
func (r *Repository) LoadGolfers(ctx context.Context) ([]models.Golfer, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, wgr, seq FROM golfers ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query golfers: %w", err)
	}
	defer rows.Close()

	var out []models.Golfer
	for rows.Next() {
		var g models.Golfer
		if err := rows.Scan(&g.ID, &g.Name, &g.WGR, &g.Seq); err != nil {
			return nil, fmt.Errorf("scan golfer: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// LoadPickOrder returns the expanded snake order.
func (r *Repository) LoadPickOrder(ctx context.Context) ([]models.PickOrderEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT participant, round FROM pick_order ORDER BY seq_index`)
	if err != nil {
		return nil, fmt.Errorf("query pick order: %w", err)
	}
	defer rows.Close()

	var out []models.PickOrderEntry
	for rows.Next() {
		var e models.PickOrderEntry
		if err := rows.Scan(&e.Participant, &e.Round); err != nil {
			return nil, fmt.Errorf("scan pick order entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SavePickOrder replaces the stored order. Used only at draft setup.
func (r *Repository) SavePickOrder(ctx context.Context, order []models.PickOrderEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM pick_order`); err != nil {
		return fmt.Errorf("clear pick order: %w", err)
	}
	for i, e := range order {
		if _, err := tx.Exec(ctx,
			`INSERT INTO pick_order (seq_index, participant, round) VALUES ($1, $2, $3)`,
			i, e.Participant, e.Round,
		); err != nil {
			return fmt.Errorf("insert pick order entry %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}

// LoadPicks returns the committed picks in sequence order.
func (r *Repository) LoadPicks(ctx context.Context) ([]models.Pick, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT seq_index, participant, golfer, ts, client_ts FROM picks ORDER BY seq_index`)
	if err != nil {
		return nil, fmt.Errorf("query picks: %w", err)
	}
	defer rows.Close()

	var out []models.Pick
	for rows.Next() {
		var p models.Pick
		if err := rows.Scan(&p.SequenceIndex, &p.Participant, &p.Golfer, &p.Timestamp, &p.ClientTimestamp); err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AppendPick inserts a committed pick. The primary key on seq_index and the
// unique constraint on golfer back up the ledger's in-process serialization.
func (r *Repository) AppendPick(ctx context.Context, p models.Pick) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO picks (seq_index, participant, golfer, ts, client_ts) VALUES ($1, $2, $3, $4, $5)`,
		p.SequenceIndex, p.Participant, p.Golfer, p.Timestamp, p.ClientTimestamp,
	)
	if err != nil {
		return fmt.Errorf("insert pick: %w", err)
	}
	return nil
}

// RemoveLastPick deletes the highest-sequence pick.
func (r *Repository) RemoveLastPick(ctx context.Context) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM picks WHERE seq_index = (SELECT MAX(seq_index) FROM picks)`)
	if err != nil {
		return fmt.Errorf("delete last pick: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no picks to remove")
	}
	return nil
}

// LoadPickList returns a participant's saved list in order, nil if unset.
func (r *Repository) LoadPickList(ctx context.Context, participant uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT golfer FROM pick_lists WHERE participant = $1 ORDER BY position`, participant)
	if err != nil {
		return nil, fmt.Errorf("query pick list: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var g uuid.UUID
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan pick list entry: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SavePickList replaces a participant's list wholesale.
func (r *Repository) SavePickList(ctx context.Context, participant uuid.UUID, golfers []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM pick_lists WHERE participant = $1`, participant); err != nil {
		return fmt.Errorf("clear pick list: %w", err)
	}
	for i, g := range golfers {
		if _, err := tx.Exec(ctx,
			`INSERT INTO pick_lists (participant, position, golfer) VALUES ($1, $2, $3)`,
			participant, i, g,
		); err != nil {
			return fmt.Errorf("insert pick list entry %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}

// LoadAppState returns the singleton control-flag row.
func (r *Repository) LoadAppState(ctx context.Context) (models.AppState, error) {
	var state models.AppState
	var autoPick []byte
	err := r.pool.QueryRow(ctx,
		`SELECT draft_has_started, is_draft_paused, allow_clock, auto_pick_participants FROM app_state`,
	).Scan(&state.DraftHasStarted, &state.IsDraftPaused, &state.AllowClock, &autoPick)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AppState{AutoPickParticipants: map[uuid.UUID]bool{}}, nil
		}
		return models.AppState{}, fmt.Errorf("query app state: %w", err)
	}

	var ids []uuid.UUID
	if err := json.Unmarshal(autoPick, &ids); err != nil {
		return models.AppState{}, fmt.Errorf("decode auto-pick participants: %w", err)
	}
	state.AutoPickParticipants = make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		state.AutoPickParticipants[id] = true
	}
	return state, nil
}

// SaveAppState persists the singleton control-flag row.
func (r *Repository) SaveAppState(ctx context.Context, state models.AppState) error {
	ids := make([]uuid.UUID, 0, len(state.AutoPickParticipants))
	for id := range state.AutoPickParticipants {
		ids = append(ids, id)
	}
	autoPick, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode auto-pick participants: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO app_state (singleton, draft_has_started, is_draft_paused, allow_clock, auto_pick_participants)
		 VALUES (TRUE, $1, $2, $3, $4)
		 ON CONFLICT (singleton) DO UPDATE SET
			draft_has_started = EXCLUDED.draft_has_started,
			is_draft_paused = EXCLUDED.is_draft_paused,
			allow_clock = EXCLUDED.allow_clock,
			auto_pick_participants = EXCLUDED.auto_pick_participants`,
		state.DraftHasStarted, state.IsDraftPaused, state.AllowClock, autoPick,
	)
	if err != nil {
		return fmt.Errorf("save app state: %w", err)
	}
	return nil
}

// LoadScores returns every golfer's per-day scores.
func (r *Repository) LoadScores(ctx context.Context) (map[uuid.UUID]models.GolferScore, error) {
	rows, err := r.pool.Query(ctx, `SELECT golfer, day, scores FROM golfer_scores`)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]models.GolferScore)
	for rows.Next() {
		var gs models.GolferScore
		var raw []byte
		if err := rows.Scan(&gs.Golfer, &gs.Day, &raw); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		if err := json.Unmarshal(raw, &gs.Scores); err != nil {
			return nil, fmt.Errorf("decode scores for golfer %s: %w", gs.Golfer, err)
		}
		out[gs.Golfer] = gs
	}
	return out, rows.Err()
}

// SaveScores upserts the given golfer scores.
func (r *Repository) SaveScores(ctx context.Context, scores []models.GolferScore) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, gs := range scores {
		raw, err := json.Marshal(gs.Scores)
		if err != nil {
			return fmt.Errorf("encode scores for golfer %s: %w", gs.Golfer, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO golfer_scores (golfer, day, scores) VALUES ($1, $2, $3)
			 ON CONFLICT (golfer) DO UPDATE SET day = EXCLUDED.day, scores = EXCLUDED.scores`,
			gs.Golfer, gs.Day, raw,
		); err != nil {
			return fmt.Errorf("upsert score for golfer %s: %w", gs.Golfer, err)
		}
	}
	return tx.Commit(ctx)
}

// EnsureGolfers inserts any golfer names not yet in the field, unranked,
// appended in ingestion order. Existing golfers are untouched.
func (r *Repository) EnsureGolfers(ctx context.Context, names []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var maxSeq int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), -1) FROM golfers`).Scan(&maxSeq); err != nil {
		return fmt.Errorf("query max golfer seq: %w", err)
	}
	for _, name := range names {
		maxSeq++
		tag, err := tx.Exec(ctx,
			`INSERT INTO golfers (id, name, wgr, seq) VALUES ($1, $2, $3, $4) ON CONFLICT (name) DO NOTHING`,
			uuid.New(), name, models.UnknownWGR, maxSeq,
		)
		if err != nil {
			return fmt.Errorf("ensure golfer %q: %w", name, err)
		}
		if tag.RowsAffected() == 0 {
			maxSeq--
		}
	}
	return tx.Commit(ctx)
}

// LoadScoreOverrides returns admin score corrections, keyed by golfer.
func (r *Repository) LoadScoreOverrides(ctx context.Context) ([]models.ScoreOverride, error) {
	rows, err := r.pool.Query(ctx, `SELECT golfer, day, scores FROM score_overrides`)
	if err != nil {
		return nil, fmt.Errorf("query score overrides: %w", err)
	}
	defer rows.Close()

	var out []models.ScoreOverride
	for rows.Next() {
		var o models.ScoreOverride
		var raw []byte
		if err := rows.Scan(&o.Golfer, &o.Day, &raw); err != nil {
			return nil, fmt.Errorf("scan score override: %w", err)
		}
		if raw != nil {
			if err := json.Unmarshal(raw, &o.Scores); err != nil {
				return nil, fmt.Errorf("decode override scores for golfer %s: %w", o.Golfer, err)
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateChatMessage persists one chat entry.
func (r *Repository) CreateChatMessage(ctx context.Context, msg models.ChatMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, participant, message, created_at) VALUES ($1, $2, $3, $4)`,
		msg.ID, msg.Participant, msg.Message, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}
