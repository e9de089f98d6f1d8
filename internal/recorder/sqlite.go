package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"mmstats/types"
)

// SQLiteRecorder persists run history to a SQLite database. Monetary values
// are stored as decimal strings, not floats, so nothing is lost on the way in.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a scheduled run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pnl_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			generated_at INTEGER NOT NULL,
			start_ts     INTEGER NOT NULL,
			end_ts       INTEGER NOT NULL,
			pair         TEXT,
			vwap_minutes INTEGER,
			trade_count  INTEGER,
			total_pnl    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_generated ON pnl_runs(generated_at)`,

		`CREATE TABLE IF NOT EXISTS pnl_trades (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          INTEGER NOT NULL REFERENCES pnl_runs(id),
			timestamp       INTEGER NOT NULL,
			type            TEXT,
			price           TEXT,
			amount          TEXT,
			money           TEXT,
			reference_price REAL,
			pnl             TEXT,
			cumulative_pnl  TEXT,
			counterparty    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON pnl_trades(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(sum *RunSummary, records []types.PnlRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO pnl_runs
		(generated_at, start_ts, end_ts, pair, vwap_minutes, trade_count, total_pnl)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), sum.Start, sum.End, sum.Pair,
		sum.VwapMinutes, sum.TradeCount, sum.TotalPnl.String(),
	)
	if err != nil {
		return err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, rec := range records {
		side := "Buy"
		if rec.Trade.IsSell {
			side = "Sell"
		}
		_, err := tx.Exec(`INSERT INTO pnl_trades
			(run_id, timestamp, type, price, amount, money, reference_price, pnl, cumulative_pnl, counterparty)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			runID, rec.Trade.Timestamp, side,
			rec.Trade.Price.String(), rec.Trade.Amount.String(), rec.Trade.Money.String(),
			rec.ReferencePrice, rec.Pnl.String(), rec.CumulativePnl.String(),
			rec.Trade.Counterparty.Hex(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
