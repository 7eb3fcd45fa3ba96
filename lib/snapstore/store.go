// Package snapstore keeps a history of validated pull results in
// sqlite, one record per (source, period) with the normalized rows
// attached. This sits beside the byte cache, which stays plain files
// with no manifest.
package snapstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"nistats/lib/discover"
	"nistats/lib/table"
	"nistats/lib/timezone"

	_ "modernc.org/sqlite"
)

const Schema = `
CREATE TABLE IF NOT EXISTS pulls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	period TEXT NOT NULL,
	url TEXT NOT NULL,
	pulled_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS pulls_source ON pulls(source, pulled_at);

CREATE TABLE IF NOT EXISTS observations (
	pull_id INTEGER NOT NULL REFERENCES pulls(id) ON DELETE CASCADE,
	period TEXT NOT NULL,
	dims TEXT NOT NULL,
	value REAL NOT NULL,
	missing INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS observations_pull ON observations(pull_id);
`

// Open opens (or creates) the snapshot database at `path`.
// ":memory:" works for tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

type PullRecord struct {
	Source   string
	Period   string
	URL      string
	PulledAt time.Time
}

// Push records a validated pull. A previous pull of the same source
// and publication period is replaced, re-pulling a revised release
// keeps one record per period.
func (s Store) Push(ctx context.Context, source string, pub discover.Publication, tbl table.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM observations WHERE pull_id IN
			(SELECT id FROM pulls WHERE source = ? AND period = ?)`,
		source, pub.Period,
	)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM pulls WHERE source = ? AND period = ?`,
		source, pub.Period,
	)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO pulls (source, period, url, pulled_at) VALUES (?, ?, ?, ?)`,
		source, pub.Period, pub.URL, timezone.Now().Unix(),
	)
	if err != nil {
		return err
	}
	pullId, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, row := range tbl.Rows {
		dims, err := json.Marshal(row.Dims)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO observations (pull_id, period, dims, value, missing) VALUES (?, ?, ?, ?, ?)`,
			pullId, row.Period, string(dims), row.Value, row.Missing,
		)
		if err != nil {
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	slog.InfoContext(
		ctx, "pushed snapshot",
		"source", source,
		"period", pub.Period,
		"rows", len(tbl.Rows),
	)
	return nil
}

// History lists recorded pulls for a source, newest first.
func (s Store) History(ctx context.Context, source string) ([]PullRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, period, url, pulled_at FROM pulls
		WHERE source = ? ORDER BY pulled_at DESC, id DESC`,
		source,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PullRecord
	for rows.Next() {
		var rec PullRecord
		var pulledAt int64
		err := rows.Scan(&rec.Source, &rec.Period, &rec.URL, &pulledAt)
		if err != nil {
			return nil, err
		}
		rec.PulledAt = time.Unix(pulledAt, 0).In(timezone.Location)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestTable reassembles the table stored by the most recent pull of
// a source. sql.ErrNoRows when the source was never pushed.
func (s Store) LatestTable(ctx context.Context, source string) (table.Table, PullRecord, error) {
	var rec PullRecord
	var pullId, pulledAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, period, url, pulled_at FROM pulls
		WHERE source = ? ORDER BY pulled_at DESC, id DESC LIMIT 1`,
		source,
	).Scan(&pullId, &rec.Source, &rec.Period, &rec.URL, &pulledAt)
	if err != nil {
		return table.Table{}, PullRecord{}, err
	}
	rec.PulledAt = time.Unix(pulledAt, 0).In(timezone.Location)

	rows, err := s.db.QueryContext(ctx, `
		SELECT period, dims, value, missing FROM observations
		WHERE pull_id = ? ORDER BY rowid`,
		pullId,
	)
	if err != nil {
		return table.Table{}, PullRecord{}, err
	}
	defer rows.Close()

	tbl := table.Table{}
	dimSeen := map[string]bool{}
	for rows.Next() {
		var row table.Row
		var dims string
		err := rows.Scan(&row.Period, &dims, &row.Value, &row.Missing)
		if err != nil {
			return table.Table{}, PullRecord{}, err
		}
		err = json.Unmarshal([]byte(dims), &row.Dims)
		if err != nil {
			return table.Table{}, PullRecord{}, err
		}
		for dim := range row.Dims {
			if !dimSeen[dim] {
				dimSeen[dim] = true
				tbl.Dims = append(tbl.Dims, dim)
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	sort.Strings(tbl.Dims)
	return tbl, rec, rows.Err()
}
