// Package store provides the receivable record source backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/claimline/receivables-cli/internal/model"
)

// ErrUnavailable marks a fetch failure from the backing store. The
// engine never retries or masks it; callers surface it as a distinct
// "data unavailable" condition.
var ErrUnavailable = eris.New("store: data unavailable")

// ReceivableSource is the engine's only external collaborator: it
// returns a finite, fully materialized record set scoped to one
// provider. The aggregators take multiple passes over the slice, so no
// streaming contract exists.
type ReceivableSource interface {
	FetchReceivables(ctx context.Context, providerScope string) ([]model.ReceivableRecord, error)
}

// Store is a full backend: the record source plus the write/maintenance
// surface used by the load command.
type Store interface {
	ReceivableSource

	InsertReceivables(ctx context.Context, records []model.ReceivableRecord) (int64, error)
	Migrate(ctx context.Context) error
	Close() error
}

// receivableColumns is the column order shared by both backends and the
// bulk loader.
var receivableColumns = []string{
	"provider_id",
	"provider_name",
	"opportunity_name",
	"case_status",
	"law_firm_id",
	"law_firm_name",
	"invoice_amount",
	"collected_amount",
	"write_off_amount",
	"open_balance",
	"invoice_date",
	"collection_date",
	"origination_date",
}
