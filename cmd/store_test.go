package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimline/receivables-cli/internal/config"
)

func TestOpenStore_InvalidConfig(t *testing.T) {
	_, err := openStore(context.Background(), &config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider.scope is required")
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "receivables.db"),
		},
		Provider: config.ProviderConfig{Scope: "Lakeside Rehab Group"},
	}

	st, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.Migrate(context.Background()))
	records, err := st.FetchReceivables(context.Background(), cfg.Provider.Scope)
	require.NoError(t, err)
	assert.Empty(t, records)
}
