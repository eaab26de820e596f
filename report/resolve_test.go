package report

import (
	"errors"
	"testing"

	"Crediflexi/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveColumns_AliasAndCaseInsensitive(t *testing.T) {
	cfg := config.DefaultReportConfig()
	headers := []string{"CÓDIGO ACREDITADO", "dias de mora", "Coordinación", "Saldo vencido"}

	res, err := ResolveColumns(headers, cfg.ColumnAliases, config.RequiredFields)
	require.NoError(t, err)

	assert.Equal(t, 0, res.First(config.FieldCode))
	assert.Equal(t, 1, res.First(config.FieldMora))
	assert.Equal(t, 2, res.First(config.FieldCoordination))
	assert.Equal(t, 3, res.First(config.FieldOverdue))
	assert.Equal(t, -1, res.First(config.FieldGeolocation))
}

func TestResolveColumns_HeaderWithEmbeddedNewline(t *testing.T) {
	cfg := config.DefaultReportConfig()
	headers := []string{"Código acreditado", "Días de\nmora", "Coordinación"}

	res, err := ResolveColumns(headers, cfg.ColumnAliases, config.RequiredFields)
	require.NoError(t, err)
	assert.Equal(t, 1, res.First(config.FieldMora))
}

func TestResolveColumns_MissingRequiredListsEveryField(t *testing.T) {
	cfg := config.DefaultReportConfig()
	headers := []string{"Nombre acreditado", "Saldo vencido"}

	_, err := ResolveColumns(headers, cfg.ColumnAliases, config.RequiredFields)
	require.Error(t, err)

	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{config.FieldCode, config.FieldCoordination, config.FieldMora}, missing.Fields)
	assert.Contains(t, err.Error(), "codigo")
	assert.Contains(t, err.Error(), "mora")
}

func TestResolveColumns_DuplicateColumnsKeepAliasPriority(t *testing.T) {
	cfg := config.DefaultReportConfig()
	headers := []string{"Código acreditado", "Días de mora", "Coordinación", "PAR 2", "PAR"}

	res, err := ResolveColumns(headers, cfg.ColumnAliases, config.RequiredFields)
	require.NoError(t, err)

	// "PAR" outranks "PAR 2" in alias order even though it sits further right.
	assert.Equal(t, []int{4, 3}, res.Columns[config.FieldPar])
}
