package store

import (
	"context"
	"os"
)

// Stats summarises the database: row counts and projects per building type.
type Stats struct {
	DBPath        string          `json:"db_path"`
	DBSizeBytes   int64           `json:"db_size_bytes"`
	Projects      int             `json:"projects"`
	Snapshots     int             `json:"diagram_snapshots"`
	ChatTurns     int             `json:"chat_turns"`
	BuildingTypes []BuildingTypes `json:"building_types"`
}

// BuildingTypes holds per-building-type project counts.
type BuildingTypes struct {
	BuildingType string `json:"building_type"`
	Count        int    `json:"count"`
}

// Stats counts projects, snapshots and chat turns. dbPath is only used for the file size.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath, BuildingTypes: []BuildingTypes{}}

	// size on disk
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&st.Projects)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM diagram_snapshots`).Scan(&st.Snapshots)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_turns`).Scan(&st.ChatTurns)

	rows, err := s.db.QueryContext(ctx, `
		SELECT building_type, COUNT(*) as cnt
		FROM projects
		GROUP BY building_type ORDER BY cnt DESC, building_type`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var bt BuildingTypes
		rows.Scan(&bt.BuildingType, &bt.Count)
		st.BuildingTypes = append(st.BuildingTypes, bt)
	}

	return st, rows.Err()
}
