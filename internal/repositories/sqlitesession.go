package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/sqlite"
)

// SQLiteSessionRepository stores every game as a JSON document in the game_sessions table.
type SQLiteSessionRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewSQLiteSessionRepository(db *sqlite.Database, logger *slog.Logger) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{
		db:     db,
		logger: logger.With("source", "SQLiteSessionRepository"),
	}
}

type sessionRow struct {
	ID           string `db:"id"`
	ScenarioID   string `db:"scenario_id"`
	CurrentPhase string `db:"current_phase"`
	Data         string `db:"data"`
}

func toRow(session models.GameSession) (sessionRow, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return sessionRow{}, errors.Wrap(err, "marshal game session", slog.String("game_id", session.ID))
	}
	return sessionRow{
		ID:           session.ID,
		ScenarioID:   session.ScenarioID,
		CurrentPhase: string(session.CurrentPhase),
		Data:         string(data),
	}, nil
}

func fromRow(row sessionRow) (models.GameSession, error) {
	var session models.GameSession
	if err := json.Unmarshal([]byte(row.Data), &session); err != nil {
		return models.GameSession{}, errors.Wrap(err, "unmarshal game session", slog.String("game_id", row.ID))
	}
	// Clone normalizes nil collections left by omitted JSON fields.
	return session.Clone(), nil
}

func (r *SQLiteSessionRepository) Get(ctx context.Context, id string) (models.GameSession, error) {
	var row sessionRow
	stmt := `SELECT id, scenario_id, current_phase, data FROM game_sessions WHERE id = ?`
	if err := r.db.ReadOnly.GetContext(ctx, &row, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.GameSession{}, sessionNotFound(id)
		}
		return models.GameSession{}, errors.Wrap(err, "read game session", slog.String("game_id", id))
	}
	return fromRow(row)
}

func (r *SQLiteSessionRepository) Create(ctx context.Context, session models.GameSession) error {
	row, err := toRow(session)
	if err != nil {
		return err
	}
	stmt := `INSERT INTO game_sessions (id, scenario_id, current_phase, data)
VALUES (:id, :scenario_id, :current_phase, :data)`
	if _, err = r.db.ReadWrite.NamedExecContext(ctx, stmt, row); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return errors.Wrap(ErrDuplicateSession, "create game session", slog.String("game_id", session.ID))
		}
		return errors.Wrap(err, "insert game session", slog.String("game_id", session.ID))
	}
	return nil
}

// Update reads, mutates and writes the session inside one immediate transaction on the single read-write
// connection, which serializes concurrent updates.
func (r *SQLiteSessionRepository) Update(ctx context.Context, id string, mutate Mutator) (_ models.GameSession, err error) {
	tx, err := r.db.ReadWrite.BeginTxx(ctx, nil)
	if err != nil {
		return models.GameSession{}, errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				r.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction",
					errors.SlogError(errors.Wrap(rollbackErr, "rollback")))
			}
		}
	}()

	var row sessionRow
	if err = tx.GetContext(ctx, &row,
		`SELECT id, scenario_id, current_phase, data FROM game_sessions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.GameSession{}, sessionNotFound(id)
		}
		return models.GameSession{}, errors.Wrap(err, "read game session", slog.String("game_id", id))
	}
	current, err := fromRow(row)
	if err != nil {
		return models.GameSession{}, err
	}
	next, err := mutate(current)
	if err != nil {
		return models.GameSession{}, err
	}
	next.ID = id
	if row, err = toRow(next); err != nil {
		return models.GameSession{}, err
	}
	stmt := `UPDATE game_sessions
SET scenario_id = ?, current_phase = ?, data = ?, updated = strftime('%Y-%m-%dT%H:%M:%fZ')
WHERE id = ?`
	if _, err = tx.ExecContext(ctx, stmt, row.ScenarioID, row.CurrentPhase, row.Data, row.ID); err != nil {
		return models.GameSession{}, errors.Wrap(err, "update game session", slog.String("game_id", id))
	}
	if err = tx.Commit(); err != nil {
		return models.GameSession{}, errors.Wrap(err, "commit game session", slog.String("game_id", id))
	}
	return next, nil
}

// Count returns the number of stored games.
func (r *SQLiteSessionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.ReadOnly.GetContext(ctx, &count, `SELECT COUNT(*) FROM game_sessions`); err != nil {
		return 0, errors.Wrap(err, "count game sessions")
	}
	return count, nil
}
