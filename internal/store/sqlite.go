package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/internal/rules"
	"golang-fact-standardizer/internal/standardizer"
	"golang-fact-standardizer/internal/validation"
	"golang-fact-standardizer/pkg/errors"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.StorageError("sqlite open", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.StorageError(fmt.Sprintf("sqlite exec %s", pragma), err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	statement     TEXT NOT NULL,
	columns       TEXT NOT NULL,
	row_count     INTEGER NOT NULL,
	iterations    INTEGER NOT NULL,
	shards        INTEGER NOT NULL,
	discrepancies INTEGER NOT NULL,
	statistics    TEXT,
	started_at    TEXT NOT NULL,
	duration_ns   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS standardized_values (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	row_idx INTEGER NOT NULL,
	adsh    TEXT NOT NULL,
	coreg   TEXT NOT NULL,
	report  INTEGER NOT NULL,
	ddate   INTEGER NOT NULL,
	uom     TEXT NOT NULL,
	tag     TEXT NOT NULL,
	value   TEXT,
	PRIMARY KEY (run_id, row_idx, tag)
);

CREATE TABLE IF NOT EXISTS rule_contributions (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	rule_id  TEXT NOT NULL,
	filled   INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS discrepancies (
	run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	rule_id   TEXT NOT NULL,
	adsh      TEXT NOT NULL,
	coreg     TEXT NOT NULL,
	report    INTEGER NOT NULL,
	ddate     INTEGER NOT NULL,
	uom       TEXT NOT NULL,
	total     TEXT NOT NULL,
	summed    TEXT NOT NULL,
	deviation TEXT NOT NULL,
	relative  TEXT NOT NULL,
	category  INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_statement ON runs(statement);
CREATE INDEX IF NOT EXISTS idx_values_adsh ON standardized_values(adsh);
CREATE INDEX IF NOT EXISTS idx_discrepancies_rule ON discrepancies(run_id, rule_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return errors.StorageError("sqlite migrate", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult stores a run with its table, contributions and discrepancies in one transaction
func (s *SQLiteStore) SaveResult(ctx context.Context, result *standardizer.Result) error {
	if result == nil || result.Table == nil {
		return errors.ValidationError(errors.CodeMissingField, "result", nil, nil)
	}

	columns := result.Table.Columns()
	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return errors.StorageError("marshal columns", err)
	}
	var statsJSON []byte
	iterations := 0
	if result.Statistics != nil {
		iterations = result.Statistics.Iterations
		if statsJSON, err = json.Marshal(result.Statistics); err != nil {
			return errors.StorageError("marshal statistics", err)
		}
	}
	discrepancies := 0
	if result.Validation != nil {
		discrepancies = result.Validation.DiscrepancyCount()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.StorageError("begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, statement, columns, row_count, iterations, shards, discrepancies, statistics, started_at, duration_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.Statement, string(columnsJSON), result.Table.Len(), iterations, result.Shards,
		discrepancies, nullableString(statsJSON), result.StartedAt.UTC().Format(time.RFC3339Nano), int64(result.Duration),
	)
	if err != nil {
		return errors.StorageError("insert run "+result.RunID, err)
	}

	if err := insertValues(ctx, tx, result.RunID, result.Table); err != nil {
		return err
	}
	if err := insertContributions(ctx, tx, result.RunID, result.Contributions); err != nil {
		return err
	}
	if result.Validation != nil {
		if err := insertDiscrepancies(ctx, tx, result.RunID, result.Validation.Discrepancies); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.StorageError("commit run "+result.RunID, err)
	}
	return nil
}

func insertValues(ctx context.Context, tx *sql.Tx, runID string, table *models.Table) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO standardized_values (run_id, row_idx, adsh, coreg, report, ddate, uom, tag, value)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.StorageError("prepare value insert", err)
	}
	defer stmt.Close()

	columns := table.Columns()
	for i, row := range table.Rows {
		k := row.Key
		for j, tag := range columns {
			var value interface{}
			if row.Values[j].Valid {
				value = row.Values[j].Decimal.String()
			}
			if _, err := stmt.ExecContext(ctx, runID, i, k.Adsh, k.Coreg, k.Report, k.Date, k.Unit, tag, value); err != nil {
				return errors.StorageError(fmt.Sprintf("insert value %s of %s", tag, k), err)
			}
		}
	}
	return nil
}

func insertContributions(ctx context.Context, tx *sql.Tx, runID string, contributions []rules.RuleContribution) error {
	for i, c := range contributions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rule_contributions (run_id, position, rule_id, filled) VALUES (?, ?, ?, ?)`,
			runID, i, c.RuleID, c.Rows,
		); err != nil {
			return errors.StorageError("insert contribution "+c.RuleID, err)
		}
	}
	return nil
}

func insertDiscrepancies(ctx context.Context, tx *sql.Tx, runID string, list []validation.Discrepancy) error {
	for i, d := range list {
		k := d.Key
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO discrepancies (run_id, position, rule_id, adsh, coreg, report, ddate, uom, total, summed, deviation, relative, category)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, d.RuleID, k.Adsh, k.Coreg, k.Report, k.Date, k.Unit,
			d.Total.String(), d.Summed.String(), d.Deviation.String(), d.Relative.String(), d.Category,
		); err != nil {
			return errors.StorageError("insert discrepancy "+d.RuleID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, statement, row_count, iterations, shards, discrepancies, statistics, started_at, duration_ns
		 FROM runs WHERE id = ?`,
		runID,
	)
	run, err := scanRun(row)
	if err != nil {
		return nil, errors.StorageError("get run "+runID, err)
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, statement, row_count, iterations, shards, discrepancies, statistics, started_at, duration_ns FROM runs`
	var args []any
	if filter.Statement != "" {
		query += ` WHERE statement = ?`
		args = append(args, filter.Statement)
	}
	query += ` ORDER BY started_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.StorageError("list runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.StorageError("scan run", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("list runs", err)
	}
	return runs, nil
}

// LoadTable rebuilds the standardized table of a run in its stored row and column order
func (s *SQLiteStore) LoadTable(ctx context.Context, runID string) (*models.Table, error) {
	var columnsJSON string
	err := s.db.QueryRowContext(ctx, `SELECT columns FROM runs WHERE id = ?`, runID).Scan(&columnsJSON)
	if err != nil {
		return nil, errors.StorageError("load table "+runID, err)
	}
	var columns []string
	if err := json.Unmarshal([]byte(columnsJSON), &columns); err != nil {
		return nil, errors.StorageError("unmarshal columns", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_idx, adsh, coreg, report, ddate, uom, tag, value
		 FROM standardized_values WHERE run_id = ? ORDER BY row_idx`,
		runID,
	)
	if err != nil {
		return nil, errors.StorageError("load values "+runID, err)
	}
	defer rows.Close()

	table := models.NewTable(columns)
	for rows.Next() {
		var (
			idx   int
			key   models.GroupKey
			tag   string
			value sql.NullString
		)
		if err := rows.Scan(&idx, &key.Adsh, &key.Coreg, &key.Report, &key.Date, &key.Unit, &tag, &value); err != nil {
			return nil, errors.StorageError("scan value", err)
		}
		for table.Len() <= idx {
			table.AddRow(key)
		}
		if !value.Valid {
			continue
		}
		d, err := decimal.NewFromString(value.String)
		if err != nil {
			return nil, errors.StorageError(fmt.Sprintf("parse value %s of %s", tag, key), err)
		}
		table.Set(idx, tag, models.Present(d))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("load values "+runID, err)
	}
	return table, nil
}

func (s *SQLiteStore) Contributions(ctx context.Context, runID string) ([]rules.RuleContribution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_id, filled FROM rule_contributions WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, errors.StorageError("load contributions "+runID, err)
	}
	defer rows.Close()

	var list []rules.RuleContribution
	for rows.Next() {
		var c rules.RuleContribution
		if err := rows.Scan(&c.RuleID, &c.Rows); err != nil {
			return nil, errors.StorageError("scan contribution", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("load contributions "+runID, err)
	}
	return list, nil
}

func (s *SQLiteStore) Discrepancies(ctx context.Context, runID string) ([]validation.Discrepancy, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_id, adsh, coreg, report, ddate, uom, total, summed, deviation, relative, category
		 FROM discrepancies WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, errors.StorageError("load discrepancies "+runID, err)
	}
	defer rows.Close()

	var list []validation.Discrepancy
	for rows.Next() {
		var (
			d                                  validation.Discrepancy
			total, summed, deviation, relative string
		)
		if err := rows.Scan(&d.RuleID, &d.Key.Adsh, &d.Key.Coreg, &d.Key.Report, &d.Key.Date, &d.Key.Unit,
			&total, &summed, &deviation, &relative, &d.Category); err != nil {
			return nil, errors.StorageError("scan discrepancy", err)
		}
		if d.Total, err = decimal.NewFromString(total); err != nil {
			return nil, errors.StorageError("parse discrepancy total", err)
		}
		if d.Summed, err = decimal.NewFromString(summed); err != nil {
			return nil, errors.StorageError("parse discrepancy summands", err)
		}
		if d.Deviation, err = decimal.NewFromString(deviation); err != nil {
			return nil, errors.StorageError("parse discrepancy deviation", err)
		}
		if d.Relative, err = decimal.NewFromString(relative); err != nil {
			return nil, errors.StorageError("parse discrepancy relative deviation", err)
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("load discrepancies "+runID, err)
	}
	return list, nil
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return errors.StorageError("delete run "+runID, err)
	}
	return checkRowsAffected(res, "run", runID)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.StorageError("rows affected", err)
	}
	if n == 0 {
		return errors.StorageError(fmt.Sprintf("%s lookup", entity), fmt.Errorf("%s not found: %s: %w", entity, id, sql.ErrNoRows))
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var (
		run       Run
		stats     sql.NullString
		startedAt string
		duration  int64
	)
	if err := row.Scan(&run.ID, &run.Statement, &run.Rows, &run.Iterations, &run.Shards,
		&run.Discrepancies, &stats, &startedAt, &duration); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = t
	run.Duration = time.Duration(duration)
	if stats.Valid {
		run.Statistics = &standardizer.Statistics{}
		if err := json.Unmarshal([]byte(stats.String), run.Statistics); err != nil {
			return nil, fmt.Errorf("unmarshal statistics: %w", err)
		}
	}
	return &run, nil
}

func nullableString(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}
