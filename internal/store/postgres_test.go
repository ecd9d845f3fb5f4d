package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimline/receivables-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func receivableRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"provider_id", "provider_name", "opportunity_name", "case_status",
		"law_firm_id", "law_firm_name",
		"invoice_amount", "collected_amount", "write_off_amount", "open_balance",
		"invoice_date", "collection_date", "origination_date",
	})
}

func TestPostgresStore_FetchReceivables(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	invoiceDate := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT provider_id, provider_name, opportunity_name`).
		WithArgs("Lakeside Rehab Group").
		WillReturnRows(receivableRows().AddRow(
			"prov-1", "Lakeside Rehab Group", "Case A", "Open",
			"lf-1", "Alpha Law",
			decimal.NewFromInt(1000), decimal.NewFromInt(400), decimal.Zero, decimal.NewFromInt(600),
			&invoiceDate, (*time.Time)(nil), (*time.Time)(nil),
		))

	records, err := s.FetchReceivables(context.Background(), "Lakeside Rehab Group")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "prov-1", rec.ProviderID)
	assert.Equal(t, "Case A", rec.OpportunityName)
	assert.Equal(t, "600.00", rec.OpenBalance.StringFixed(2))
	require.NotNil(t, rec.InvoiceDate)
	assert.Equal(t, invoiceDate, *rec.InvoiceDate)
	assert.Nil(t, rec.CollectionDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FetchReceivables_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT provider_id, provider_name, opportunity_name`).
		WithArgs("Unknown Provider").
		WillReturnRows(receivableRows())

	records, err := s.FetchReceivables(context.Background(), "Unknown Provider")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FetchReceivables_QueryErrorIsUnavailable(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT provider_id, provider_name, opportunity_name`).
		WithArgs("Lakeside Rehab Group").
		WillReturnError(pgx.ErrTxClosed)

	_, err := s.FetchReceivables(context.Background(), "Lakeside Rehab Group")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS receivables`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS receivables`).
		WillReturnError(pgx.ErrTxClosed)

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: migrate")
}

func TestPostgresStore_InsertReceivables(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"receivables"}, receivableColumns).
		WillReturnResult(2)

	records := []model.ReceivableRecord{
		{ProviderID: "prov-1", OpportunityName: "Case A", InvoiceAmount: decimal.NewFromInt(100)},
		{ProviderID: "prov-1", OpportunityName: "Case B", InvoiceAmount: decimal.NewFromInt(200)},
	}
	n, err := s.InsertReceivables(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close_NilCloseFn(t *testing.T) {
	s := &PostgresStore{}
	assert.NoError(t, s.Close())
}
