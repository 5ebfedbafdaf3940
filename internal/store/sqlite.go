package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/section-j/internal/model"
)

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps projects, diagram snapshots and chat turns in one SQLite file.
type SQLiteStore struct {
	db      *sql.DB
	mu      sync.Mutex // guards entropy
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		building_type   TEXT NOT NULL DEFAULT '',
		classification  TEXT,
		location        TEXT,
		climate_zone    TEXT,
		floor_area      REAL,
		habitable_area  REAL,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_projects_type ON projects(building_type);

	CREATE TABLE IF NOT EXISTS diagram_snapshots (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		version     INTEGER NOT NULL,
		supersedes  TEXT,
		graph       TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		UNIQUE (project_id, version)
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_project ON diagram_snapshots(project_id, version DESC);

	CREATE TABLE IF NOT EXISTS chat_turns (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		message     TEXT NOT NULL,
		response    TEXT NOT NULL,
		applied     INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_project ON chat_turns(project_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) PutProject(ctx context.Context, p PutProjectParams) (*model.Project, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("project name is required")
	}
	now := time.Now().UTC()

	classification, err := jsonColumn(p.BuildingClassification)
	if err != nil {
		return nil, err
	}
	location, err := jsonColumn(p.Location)
	if err != nil {
		return nil, err
	}
	zone, err := jsonColumn(p.ClimateZone)
	if err != nil {
		return nil, err
	}

	if p.ID == "" {
		id := s.newID()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO projects (id, name, building_type, classification, location, climate_zone, floor_area, habitable_area, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.Name, p.BuildingType, classification, location, zone, p.FloorArea, p.TotalAreaOfHabitableRooms,
			now.Format(timeFormat), now.Format(timeFormat))
		if err != nil {
			return nil, fmt.Errorf("insert project: %w", err)
		}
		return s.GetProject(ctx, id)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, building_type = ?, classification = ?, location = ?, climate_zone = ?,
		        floor_area = ?, habitable_area = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.BuildingType, classification, location, zone, p.FloorArea, p.TotalAreaOfHabitableRooms,
		now.Format(timeFormat), p.ID)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}
	return s.GetProject(ctx, p.ID)
}

const projectColumns = `id, name, building_type, classification, location, climate_zone, floor_area, habitable_area, created_at, updated_at`

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context, p ListProjectsParams) ([]model.Project, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"1 = 1"}
	var args []interface{}
	if p.Query != "" {
		where = append(where, "(name LIKE ? OR building_type LIKE ?)")
		q := "%" + p.Query + "%"
		args = append(args, q, q)
	}
	if p.BuildingType != "" {
		where = append(where, "building_type = ?")
		args = append(args, p.BuildingType)
	}

	query := fmt.Sprintf(`SELECT %s FROM projects WHERE %s ORDER BY updated_at DESC, rowid DESC LIMIT ?`,
		projectColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		pr, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, pr)
	}
	return projects, rows.Err()
}

func (s *SQLiteStore) RmProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM diagram_snapshots WHERE project_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_turns WHERE project_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row scanner) (model.Project, error) {
	var p model.Project
	var classification, location, zone sql.NullString
	var floorArea, habitable sql.NullFloat64
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &p.BuildingType, &classification, &location, &zone,
		&floorArea, &habitable, &createdAt, &updatedAt)
	if err != nil {
		return p, err
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	if classification.Valid {
		p.BuildingClassification = &model.BuildingClassification{}
		if err := json.Unmarshal([]byte(classification.String), p.BuildingClassification); err != nil {
			return p, fmt.Errorf("decode classification: %w", err)
		}
	}
	if location.Valid {
		p.Location = &model.Location{}
		if err := json.Unmarshal([]byte(location.String), p.Location); err != nil {
			return p, fmt.Errorf("decode location: %w", err)
		}
	}
	if zone.Valid {
		p.ClimateZone = &model.ClimateZone{}
		if err := json.Unmarshal([]byte(zone.String), p.ClimateZone); err != nil {
			return p, fmt.Errorf("decode climate zone: %w", err)
		}
	}
	if floorArea.Valid {
		v := floorArea.Float64
		p.FloorArea = &v
	}
	if habitable.Valid {
		v := habitable.Float64
		p.TotalAreaOfHabitableRooms = &v
	}
	return p, nil
}

// jsonColumn encodes v for a nullable TEXT column; a nil pointer stores NULL.
func jsonColumn[T any](v *T) (*string, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
