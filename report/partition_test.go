package report

import (
	"testing"

	"Crediflexi/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partitionFixture(t *testing.T) *Dataset {
	t.Helper()
	cfg := config.DefaultReportConfig()
	headers := []string{"Código acreditado", "Días de mora", "Coordinación", "Saldo vencido"}
	data := [][]string{
		{"10", "30", "Norte", "500.00"},
		{"11", "1", "Sur", "0"},
		{"12", "0", "Norte", "250.00"},
		{"13", "-5", "Sur", "0.50"},
		{"14", "x", "Sur", "80.00"},
		{"15", "0", "", "0"},
	}
	res, err := ResolveColumns(headers, cfg.ColumnAliases, config.RequiredFields)
	require.NoError(t, err)
	ds, _, err := Clean(headers, data, res, cfg)
	require.NoError(t, err)
	Enrich(ds, cfg)
	return ds
}

func codes(ds *Dataset) []string {
	out := make([]string, len(ds.Rows))
	for i, r := range ds.Rows {
		out[i] = r.Code
	}
	return out
}

func TestPartition_FullLeadsWithCode(t *testing.T) {
	ds := partitionFixture(t)
	p := Partition(ds)

	assert.Len(t, p.Full.Rows, len(ds.Rows))
	assert.Equal(t, 0, p.Full.Col(config.FieldCode))
	assert.Equal(t, "Código acreditado", p.Full.Headers[0])
	// The source dataset keeps its own column order.
	assert.NotEqual(t, 0, ds.Col(config.FieldMora))
}

func TestPartition_MoraAndOverdueAreDisjoint(t *testing.T) {
	ds := partitionFixture(t)
	p := Partition(ds)

	assert.Equal(t, []string{"000010", "000011"}, codes(p.Mora))
	assert.Equal(t, []string{"000012", "000014"}, codes(p.OverdueNoMora))

	inMora := make(map[string]bool)
	for _, c := range codes(p.Mora) {
		inMora[c] = true
	}
	for _, c := range codes(p.OverdueNoMora) {
		assert.False(t, inMora[c], "code %s in both views", c)
	}
}

func TestPartition_CoordinationsFirstSeenOrder(t *testing.T) {
	ds := partitionFixture(t)
	p := Partition(ds)

	require.Len(t, p.Coordinations, 2)
	// Cleaned order is mora-descending, so Norte (30 days) is seen first.
	assert.Equal(t, "Norte", p.Coordinations[0].Name)
	assert.Equal(t, "Sur", p.Coordinations[1].Name)
	assert.Equal(t, []string{"000010", "000012"}, codes(p.Coordinations[0].Data))
	assert.Equal(t, []string{"000011", "000014", "000013"}, codes(p.Coordinations[1].Data))
}

func TestPartition_RowsWithoutCoordinationOnlyInFull(t *testing.T) {
	ds := partitionFixture(t)
	p := Partition(ds)

	for _, coord := range p.Coordinations {
		for _, r := range coord.Data.Rows {
			assert.NotEqual(t, "000015", r.Code)
		}
	}
	assert.Contains(t, codes(p.Full), "000015")
}

func TestSplitCollaborators_CoversDatasetExactly(t *testing.T) {
	cfg := config.DefaultReportConfig()
	headers := []string{"Código acreditado", "Días de mora", "Coordinación"}
	data := [][]string{
		{"1", "10", "Norte"},
		{"500", "5", "Norte"},
		{"2", "0", "Sur"},
	}
	res, err := ResolveColumns(headers, cfg.ColumnAliases, config.RequiredFields)
	require.NoError(t, err)
	ds, _, err := Clean(headers, data, res, cfg)
	require.NoError(t, err)
	Enrich(ds, cfg)

	main, collab := SplitCollaborators(ds)
	assert.Equal(t, []string{"000500"}, codes(main))
	assert.Equal(t, []string{"000001", "000002"}, codes(collab))
	assert.Equal(t, len(ds.Rows), len(main.Rows)+len(collab.Rows))
}

func TestFilterFraud_RemovesListedCodes(t *testing.T) {
	cfg := config.DefaultReportConfig()
	headers := []string{"Código acreditado", "Días de mora", "Coordinación"}
	data := [][]string{
		{"1041", "10", "Norte"}, // normalizes onto the fraud list
		{"2000", "5", "Norte"},
		{"001005", "1", "Sur"},
	}
	res, err := ResolveColumns(headers, cfg.ColumnAliases, config.RequiredFields)
	require.NoError(t, err)
	ds, _, err := Clean(headers, data, res, cfg)
	require.NoError(t, err)

	filtered, removed := FilterFraud(ds, cfg.FraudCodes)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"002000"}, codes(filtered))
}
