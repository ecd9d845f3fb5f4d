package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/claimline/receivables-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It exists for
// local development and demos; production runs on Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// dateLayout is how the sqlite backend stores nullable dates.
const dateLayout = "2006-01-02"

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS receivables (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	provider_id      TEXT NOT NULL,
	provider_name    TEXT NOT NULL,
	opportunity_name TEXT NOT NULL,
	case_status      TEXT NOT NULL,
	law_firm_id      TEXT NOT NULL,
	law_firm_name    TEXT NOT NULL,
	invoice_amount   TEXT NOT NULL DEFAULT '0',
	collected_amount TEXT NOT NULL DEFAULT '0',
	write_off_amount TEXT NOT NULL DEFAULT '0',
	open_balance     TEXT NOT NULL DEFAULT '0',
	invoice_date     TEXT,
	collection_date  TEXT,
	origination_date TEXT
);

CREATE INDEX IF NOT EXISTS idx_receivables_provider ON receivables(provider_name);
CREATE INDEX IF NOT EXISTS idx_receivables_law_firm ON receivables(law_firm_id);
`

// Migrate creates the receivables table and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// FetchReceivables returns all records for one provider scope.
func (s *SQLiteStore) FetchReceivables(ctx context.Context, providerScope string) ([]model.ReceivableRecord, error) {
	const query = `SELECT provider_id, provider_name, opportunity_name, case_status,
		law_firm_id, law_firm_name,
		invoice_amount, collected_amount, write_off_amount, open_balance,
		invoice_date, collection_date, origination_date
	FROM receivables
	WHERE provider_name = ?
	ORDER BY law_firm_id, opportunity_name, invoice_date`

	rows, err := s.db.QueryContext(ctx, query, providerScope)
	if err != nil {
		zap.L().Error("sqlite: fetch receivables failed",
			zap.String("provider", providerScope),
			zap.Error(err),
		)
		return nil, eris.Wrap(ErrUnavailable, err.Error())
	}
	defer rows.Close()

	var records []model.ReceivableRecord
	for rows.Next() {
		var rec model.ReceivableRecord
		var invDate, collDate, origDate sql.NullString
		err := rows.Scan(
			&rec.ProviderID,
			&rec.ProviderName,
			&rec.OpportunityName,
			&rec.CaseStatus,
			&rec.LawFirmID,
			&rec.LawFirmName,
			&rec.InvoiceAmount,
			&rec.CollectedAmount,
			&rec.WriteOffAmount,
			&rec.OpenBalance,
			&invDate,
			&collDate,
			&origDate,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan receivable")
		}
		if rec.InvoiceDate, err = parseDate(invDate); err != nil {
			return nil, err
		}
		if rec.CollectionDate, err = parseDate(collDate); err != nil {
			return nil, err
		}
		if rec.OriginationDate, err = parseDate(origDate); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(ErrUnavailable, err.Error())
	}
	return records, nil
}

// InsertReceivables inserts records in a single transaction.
func (s *SQLiteStore) InsertReceivables(ctx context.Context, records []model.ReceivableRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO receivables (
		provider_id, provider_name, opportunity_name, case_status,
		law_firm_id, law_firm_name,
		invoice_amount, collected_amount, write_off_amount, open_balance,
		invoice_date, collection_date, origination_date
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	var n int64
	for i := range records {
		rec := &records[i]
		_, err := stmt.ExecContext(ctx,
			rec.ProviderID,
			rec.ProviderName,
			rec.OpportunityName,
			rec.CaseStatus,
			rec.LawFirmID,
			rec.LawFirmName,
			rec.InvoiceAmount.String(),
			rec.CollectedAmount.String(),
			rec.WriteOffAmount.String(),
			rec.OpenBalance.String(),
			formatDate(rec.InvoiceDate),
			formatDate(rec.CollectionDate),
			formatDate(rec.OriginationDate),
		)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: insert receivable")
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return n, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func parseDate(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v.String)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse date %q", v.String)
	}
	return &t, nil
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}
