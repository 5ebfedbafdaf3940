package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/section-j/internal/model"
)

func (s *SQLiteStore) SaveDiagram(ctx context.Context, projectID string, g model.Graph) (*model.DiagramSnapshot, error) {
	graphJSON, err := json.Marshal(g.Clone())
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	now := time.Now().UTC()
	id := s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, projectID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}

	// new snapshot supersedes the current head, if any
	var prevID string
	var prevVersion int
	err = tx.QueryRowContext(ctx,
		`SELECT id, version FROM diagram_snapshots
		 WHERE project_id = ? ORDER BY version DESC LIMIT 1`, projectID).Scan(&prevID, &prevVersion)

	version := 1
	var supersedes *string
	if err == nil {
		version = prevVersion + 1
		supersedes = &prevID
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO diagram_snapshots (id, project_id, version, supersedes, graph, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, projectID, version, supersedes, string(graphJSON), now.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	snap := &model.DiagramSnapshot{
		ID:        id,
		ProjectID: projectID,
		Version:   version,
		Graph:     g.Clone(),
		CreatedAt: now,
	}
	if supersedes != nil {
		snap.Supersedes = *supersedes
	}
	return snap, nil
}

const snapshotColumns = `id, project_id, version, supersedes, graph, created_at`

func (s *SQLiteStore) LatestDiagram(ctx context.Context, projectID string) (*model.DiagramSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM diagram_snapshots
		 WHERE project_id = ? ORDER BY version DESC LIMIT 1`, projectID)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.DiagramSnapshot{ProjectID: projectID, Graph: model.Graph{}.Clone()}, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteStore) DiagramHistory(ctx context.Context, projectID string, limit int) ([]model.DiagramSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM diagram_snapshots
		 WHERE project_id = ? ORDER BY version DESC LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps := []model.DiagramSnapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func scanSnapshot(row scanner) (model.DiagramSnapshot, error) {
	var snap model.DiagramSnapshot
	var supersedes sql.NullString
	var graphJSON, createdAt string

	if err := row.Scan(&snap.ID, &snap.ProjectID, &snap.Version, &supersedes, &graphJSON, &createdAt); err != nil {
		return snap, err
	}
	snap.Supersedes = supersedes.String
	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if err := json.Unmarshal([]byte(graphJSON), &snap.Graph); err != nil {
		return snap, fmt.Errorf("decode graph: %w", err)
	}
	snap.Graph = snap.Graph.Clone()
	return snap, nil
}

func (s *SQLiteStore) AddTurn(ctx context.Context, t model.ChatTurn) (*model.ChatTurn, error) {
	t.ID = s.newID()
	t.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_turns (id, project_id, message, response, applied, skipped, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Message, t.Response, t.Applied, t.Skipped, t.CreatedAt.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("insert chat turn: %w", err)
	}
	return &t, nil
}

func (s *SQLiteStore) ListTurns(ctx context.Context, projectID string, limit int) ([]model.ChatTurn, error) {
	if limit <= 0 {
		limit = 50
	}
	// newest N, returned oldest first
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, message, response, applied, skipped, created_at FROM (
		   SELECT rowid AS seq, * FROM chat_turns WHERE project_id = ? ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []model.ChatTurn{}
	for rows.Next() {
		var t model.ChatTurn
		var createdAt string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Message, &t.Response, &t.Applied, &t.Skipped, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
