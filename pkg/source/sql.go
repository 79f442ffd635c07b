package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/bayesaudit/pkg/ballot"
	"github.com/matzehuels/bayesaudit/pkg/errors"
	"github.com/matzehuels/bayesaudit/pkg/rng"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialect struct {
	schema string
	insert string
	ids    string
	fetch  string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		schema: `
CREATE TABLE IF NOT EXISTS ballot (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    contest TEXT NOT NULL,
    prefs TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ballot_contest ON ballot(contest);
`,
		insert: `INSERT INTO ballot (contest, prefs) VALUES (?, ?)`,
		ids:    `SELECT id FROM ballot WHERE contest = ? ORDER BY id`,
		fetch:  `SELECT prefs FROM ballot WHERE id = ?`,
	},
	DriverPostgres: {
		schema: `
CREATE TABLE IF NOT EXISTS ballot (
    id BIGSERIAL PRIMARY KEY,
    contest TEXT NOT NULL,
    prefs TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ballot_contest ON ballot(contest);
`,
		insert: `INSERT INTO ballot (contest, prefs) VALUES ($1, $2)`,
		ids:    `SELECT id FROM ballot WHERE contest = $1 ORDER BY id`,
		fetch:  `SELECT prefs FROM ballot WHERE id = $1`,
	},
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, errors.New(errors.ErrCodeInvalidConfig, "unsupported database driver %q (want %s or %s)", driver, DriverSQLite, DriverPostgres)
	}
	return d, nil
}

// OpenDB opens and pings a database. driver is [DriverSQLite] or
// [DriverPostgres]; dsn is a file path or connection URL respectively.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if _, err := lookupDialect(driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSource, err, "open %s database", driver)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeSource, err, "ping %s database", driver)
	}
	return db, nil
}

// CreateSchema creates the ballot table. Safe to call multiple times.
func CreateSchema(ctx context.Context, db *sql.DB, driver string) error {
	d, err := lookupDialect(driver)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// InsertBallots stores ballots for contest in one transaction.
func InsertBallots(ctx context.Context, db *sql.DB, driver, contest string, ballots []ballot.Ballot) error {
	d, err := lookupDialect(driver)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, d.insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range ballots {
		prefs, err := json.Marshal([]ballot.Candidate(b))
		if err != nil {
			return fmt.Errorf("encode ballot %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, contest, string(prefs)); err != nil {
			return fmt.Errorf("insert ballot %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// SQL draws the ballots of one contest from a ballot box table. The ballot
// IDs are loaded once and shuffled with the seed; ballots themselves are
// fetched as they are drawn. An SQL source is not safe for concurrent use.
type SQL struct {
	fetch *sql.Stmt
	ids   []int64
	pos   int
}

// NewSQL prepares a source over contest's ballots. The caller keeps
// ownership of db; [SQL.Close] releases only the source's statement.
func NewSQL(ctx context.Context, db *sql.DB, driver, contest string, seed uint64) (*SQL, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, d.ids, contest)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSource, err, "list ballots of %q", contest)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(errors.ErrCodeSource, err, "scan ballot id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSource, err, "list ballots of %q", contest)
	}

	stmt, err := db.PrepareContext(ctx, d.fetch)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSource, err, "prepare fetch")
	}

	r := rng.New(seed)
	r.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return &SQL{fetch: stmt, ids: ids}, nil
}

// Len returns the number of ballots in the contest.
func (s *SQL) Len() int { return len(s.ids) }

// Draw fetches the next k ballots, fewer once the box runs out.
func (s *SQL) Draw(ctx context.Context, k int) ([]ballot.Ballot, error) {
	end := min(s.pos+max(k, 0), len(s.ids))
	out := make([]ballot.Ballot, 0, end-s.pos)
	for _, id := range s.ids[s.pos:end] {
		var prefs string
		if err := s.fetch.QueryRowContext(ctx, id).Scan(&prefs); err != nil {
			return nil, fmt.Errorf("fetch ballot %d: %w", id, err)
		}
		var b []ballot.Candidate
		if err := json.Unmarshal([]byte(prefs), &b); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode ballot %d", id)
		}
		out = append(out, ballot.New(b...))
	}
	s.pos = end
	return out, nil
}

// Seek positions the source after the first drawn ballots.
func (s *SQL) Seek(_ context.Context, drawn int) error {
	if drawn < 0 || drawn > len(s.ids) {
		return errors.New(errors.ErrCodeInvalidInput, "cannot seek to ballot %d of %d", drawn, len(s.ids))
	}
	s.pos = drawn
	return nil
}

// Close releases the prepared statement.
func (s *SQL) Close() error { return s.fetch.Close() }
