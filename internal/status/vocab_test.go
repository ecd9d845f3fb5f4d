package status

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restoreVocabularies snapshots the package-level vocabularies and
// restores them after mutation tests.
func restoreVocabularies(t *testing.T) {
	t.Helper()
	period, portfolio := Period, Portfolio
	t.Cleanup(func() {
		Period = period
		Portfolio = portfolio
	})
}

func TestSet_Contains(t *testing.T) {
	s := NewSet("Open", "In Progress")
	assert.True(t, s.Contains("Open"))
	assert.False(t, s.Contains("open")) // case sensitive
	assert.False(t, s.Contains("Closed"))
}

func TestSet_Members(t *testing.T) {
	s := NewSet("A", "B")
	assert.ElementsMatch(t, []string{"A", "B"}, s.Members())
}

// The pinned strings below are the exact status values the upstream
// master data uses at each call site. Any edit to the pinned
// vocabularies must update these tests deliberately.
func TestPeriodVocabulary_Pinned(t *testing.T) {
	assert.ElementsMatch(t, []string{"Open", "In Progress", "Litigation"}, Period.Actionable.Members())
	assert.ElementsMatch(t, []string{"Settled - Pending"}, Period.SettledPending.Members())
	assert.ElementsMatch(t, []string{"Litigation"}, Period.ActiveLitigation.Members())
	assert.ElementsMatch(t, []string{"No Longer Represent", "Stale - Pending"}, Period.AtRisk.Members())
	assert.ElementsMatch(t, []string{"Stale - Pending"}, Period.Pending.Members())
}

func TestPortfolioVocabulary_Pinned(t *testing.T) {
	assert.ElementsMatch(t, []string{"Open", "In Progress", "Litigation"}, Portfolio.Actionable.Members())
	assert.ElementsMatch(t, []string{"Settled - Not Yet Disbursed"}, Portfolio.SettledPending.Members())
	assert.ElementsMatch(t, []string{"In Litigation", "Negotiation"}, Portfolio.ActiveLitigation.Members())
	assert.ElementsMatch(t, []string{"No Longer Represent", "Pending"}, Portfolio.AtRisk.Members())
	assert.ElementsMatch(t, []string{"Pending"}, Portfolio.Pending.Members())
}

func TestVocabularies_AgreeOnNoLongerRepresent(t *testing.T) {
	assert.True(t, Period.AtRisk.Contains(NoLongerRepresent))
	assert.True(t, Portfolio.AtRisk.Contains(NoLongerRepresent))
}

func TestLoadOverrides_PartialSection(t *testing.T) {
	restoreVocabularies(t)

	path := filepath.Join(t.TempDir(), "vocab.yaml")
	content := `period:
  at_risk:
    - "Abandoned"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, LoadOverrides(path))

	// Named bucket replaced.
	assert.ElementsMatch(t, []string{"Abandoned"}, Period.AtRisk.Members())
	// Unnamed buckets keep pinned values.
	assert.ElementsMatch(t, []string{"Open", "In Progress", "Litigation"}, Period.Actionable.Members())
	assert.ElementsMatch(t, []string{"No Longer Represent", "Pending"}, Portfolio.AtRisk.Members())
}

func TestLoadOverrides_MissingFile(t *testing.T) {
	err := LoadOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read vocabulary file")
}

func TestLoadOverrides_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("period: [broken"), 0o644))

	err := LoadOverrides(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse vocabulary file")
}
