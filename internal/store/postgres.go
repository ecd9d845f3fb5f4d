package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/claimline/receivables-cli/internal/db"
	"github.com/claimline/receivables-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const fetchReceivablesSQL = `SELECT provider_id, provider_name, opportunity_name, case_status,
	law_firm_id, law_firm_name,
	invoice_amount, collected_amount, write_off_amount, open_balance,
	invoice_date, collection_date, origination_date
FROM receivables
WHERE provider_name = $1
ORDER BY law_firm_id, opportunity_name, invoice_date`

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// The fetch query runs on every dashboard request; prepare it on
	// each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Prepare(ctx, "fetch_receivables", fetchReceivablesSQL); err != nil {
			return eris.Wrap(err, "postgres: prepare fetch_receivables")
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS receivables (
	id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	provider_id      TEXT NOT NULL,
	provider_name    TEXT NOT NULL,
	opportunity_name TEXT NOT NULL,
	case_status      TEXT NOT NULL,
	law_firm_id      TEXT NOT NULL,
	law_firm_name    TEXT NOT NULL,
	invoice_amount   NUMERIC(14,2) NOT NULL DEFAULT 0,
	collected_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	write_off_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	open_balance     NUMERIC(14,2) NOT NULL DEFAULT 0,
	invoice_date     DATE,
	collection_date  DATE,
	origination_date DATE
);

CREATE INDEX IF NOT EXISTS idx_receivables_provider ON receivables(provider_name);
CREATE INDEX IF NOT EXISTS idx_receivables_law_firm ON receivables(law_firm_id);
CREATE INDEX IF NOT EXISTS idx_receivables_invoice_date ON receivables(invoice_date);
CREATE INDEX IF NOT EXISTS idx_receivables_collection_date ON receivables(collection_date);
`

// Migrate creates the receivables table and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// FetchReceivables returns all records for one provider scope, fully
// materialized. Failures surface as ErrUnavailable; retry policy belongs
// to callers outside the engine.
func (s *PostgresStore) FetchReceivables(ctx context.Context, providerScope string) ([]model.ReceivableRecord, error) {
	rows, err := s.pool.Query(ctx, fetchReceivablesSQL, providerScope)
	if err != nil {
		zap.L().Error("postgres: fetch receivables failed",
			zap.String("provider", providerScope),
			zap.Error(err),
		)
		return nil, eris.Wrap(ErrUnavailable, err.Error())
	}
	defer rows.Close()

	var records []model.ReceivableRecord
	for rows.Next() {
		var rec model.ReceivableRecord
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
			&rec.InvoiceDate,
			&rec.CollectionDate,
			&rec.OriginationDate,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan receivable")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(ErrUnavailable, err.Error())
	}
	return records, nil
}

// InsertReceivables bulk-loads records via COPY.
func (s *PostgresStore) InsertReceivables(ctx context.Context, records []model.ReceivableRecord) (int64, error) {
	rows := make([][]any, 0, len(records))
	for i := range records {
		rec := &records[i]
		rows = append(rows, []any{
			rec.ProviderID,
			rec.ProviderName,
			rec.OpportunityName,
			rec.CaseStatus,
			rec.LawFirmID,
			rec.LawFirmName,
			rec.InvoiceAmount,
			rec.CollectedAmount,
			rec.WriteOffAmount,
			rec.OpenBalance,
			rec.InvoiceDate,
			rec.CollectionDate,
			rec.OriginationDate,
		})
	}
	n, err := db.CopyFrom(ctx, s.pool, "receivables", receivableColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert receivables")
	}
	return n, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
