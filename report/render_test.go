package report

import (
	"bytes"
	"strconv"
	"testing"

	"Crediflexi/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func renderFixture(t *testing.T) (*Partitions, config.ReportConfig) {
	t.Helper()
	cfg := config.DefaultReportConfig()
	headers := []string{
		"Código acreditado", "Días de mora", "Coordinación", "Saldo vencido",
		"Ciclo", "Nombre acreditado", "Saldo interés vencido", "Geolocalización domicilio",
	}
	data := [][]string{
		{"10", "30", "Norte", "1,500.00", "2", "Ana López", "120.00", "Av. Juárez 10"},
		{"11", "1", "Sur", "0", "1", "Luis Pérez", "0", ""},
		{"12", "0", "Norte", "250.00", "3", "Eva Ruiz", "0", ""},
	}
	res, err := ResolveColumns(headers, cfg.ColumnAliases, config.RequiredFields)
	require.NoError(t, err)
	ds, _, err := Clean(headers, data, res, cfg)
	require.NoError(t, err)
	Enrich(ds, cfg)
	return Partition(ds), cfg
}

func renderWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	p, cfg := renderFixture(t)
	out, err := Render(p, cfg, RenderOptions{FullSheetName: "06062025"})
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRender_SheetOrder(t *testing.T) {
	f := renderWorkbook(t)
	assert.Equal(t, []string{
		"06062025",
		SheetMora,
		SheetOverdue,
		SheetLiquidation,
		"Norte",
		"Sur",
	}, f.GetSheetList())
}

func TestRender_FullSheetLayout(t *testing.T) {
	f := renderWorkbook(t)

	v, err := f.GetCellValue("06062025", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Código acreditado", v)

	// Highest delinquency first, code leading.
	v, _ = f.GetCellValue("06062025", "A3")
	assert.Equal(t, "000010", v)
	v, _ = f.GetCellValue("06062025", "A5")
	assert.Equal(t, "000012", v)
}

func TestRender_MoraSheetHasTrackingBlocks(t *testing.T) {
	f := renderWorkbook(t)
	cfg := config.DefaultReportConfig()

	rows, err := f.GetRows(SheetMora)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	titles := rows[0]
	assert.Contains(t, titles, cfg.CallCenterBlock.Title)
	assert.Contains(t, titles, cfg.FieldBlock.Title)

	// Only delinquent accounts land here.
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, "000010", rows[2][0])
	assert.Equal(t, "000011", rows[3][0])
}

func TestRender_LiquidationFormulas(t *testing.T) {
	f := renderWorkbook(t)

	v, err := f.GetCellValue(SheetLiquidation, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Montos Vencidos", v)

	formula, err := f.GetCellFormula(SheetLiquidation, "B3")
	require.NoError(t, err)
	assert.Contains(t, formula, "VLOOKUP(A3,'06062025'!A$2:")
	assert.Contains(t, formula, "IFERROR")

	formula, err = f.GetCellFormula(SheetLiquidation, "J3")
	require.NoError(t, err)
	assert.Equal(t, "SUM(D3:I3)", formula)
}

func TestRender_GeolocationHyperlink(t *testing.T) {
	f := renderWorkbook(t)

	rows, err := f.GetRows("06062025")
	require.NoError(t, err)
	linkCol := -1
	for i, h := range rows[1] {
		if h == LinkColumnHeader {
			linkCol = i
		}
	}
	require.GreaterOrEqual(t, linkCol, 0)

	cell, err := excelize.CoordinatesToCellName(linkCol+1, 3)
	require.NoError(t, err)
	hasLink, target, err := f.GetCellHyperLink("06062025", cell)
	require.NoError(t, err)
	assert.True(t, hasLink)
	assert.Contains(t, target, "google.com/maps")

	// Rows without an address get no link at all.
	cell, err = excelize.CoordinatesToCellName(linkCol+1, 4)
	require.NoError(t, err)
	hasLink, _, err = f.GetCellHyperLink("06062025", cell)
	require.NoError(t, err)
	assert.False(t, hasLink)
}

func TestRender_SkipsEmptyOverdueSheet(t *testing.T) {
	cfg := config.DefaultReportConfig()
	headers := []string{"Código acreditado", "Días de mora", "Coordinación"}
	data := [][]string{{"10", "5", "Norte"}}
	res, err := ResolveColumns(headers, cfg.ColumnAliases, config.RequiredFields)
	require.NoError(t, err)
	ds, _, err := Clean(headers, data, res, cfg)
	require.NoError(t, err)
	Enrich(ds, cfg)

	out, err := Render(Partition(ds), cfg, RenderOptions{FullSheetName: "01012025"})
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.NotContains(t, f.GetSheetList(), SheetOverdue)
}

func TestRender_SheetNameCollisionFails(t *testing.T) {
	p, cfg := renderFixture(t)
	_, err := Render(p, cfg, RenderOptions{FullSheetName: "Norte"})
	require.Error(t, err)

	var rerr *RenderError
	assert.ErrorAs(t, err, &rerr)
}

func TestClassifyColumns_DateOutranksCurrency(t *testing.T) {
	cfg := config.DefaultReportConfig()
	r := &renderer{cfg: cfg}
	ds := &Dataset{
		Headers: []string{"Código acreditado", "Último pago", "Inicio ciclo", "Saldo vencido"},
		Fields:  map[string]int{},
	}

	kinds := r.classifyColumns(ds)
	assert.Equal(t, kindCode, kinds[0])
	// "Último pago" contains the currency keyword "pago" but is a date.
	assert.Equal(t, kindDate, kinds[1])
	assert.Equal(t, kindDate, kinds[2])
	assert.Equal(t, kindCurrency, kinds[3])
}

func TestRender_DateColumnFormat(t *testing.T) {
	cfg := config.DefaultReportConfig()
	headers := []string{"Código acreditado", "Días de mora", "Coordinación", "Último pago"}
	data := [][]string{{"10", "5", "Norte", "15/03/2025"}}
	res, err := ResolveColumns(headers, cfg.ColumnAliases, config.RequiredFields)
	require.NoError(t, err)
	ds, _, err := Clean(headers, data, res, cfg)
	require.NoError(t, err)
	Enrich(ds, cfg)

	out, err := Render(Partition(ds), cfg, RenderOptions{FullSheetName: "01012025"})
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	// The date column lands last on the full sheet (code moved to front).
	dateCol := len(ds.Headers)
	cell, err := excelize.CoordinatesToCellName(dateCol, 3)
	require.NoError(t, err)

	raw, err := f.GetCellValue("01012025", cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	_, err = strconv.ParseFloat(raw, 64)
	assert.NoError(t, err, "date cells hold a serial number, not text (got %q)", raw)

	styleID, err := f.GetCellStyle("01012025", cell)
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.CustomNumFmt)
	assert.Equal(t, cfg.Style.DateFormat, *style.CustomNumFmt)
}

func TestRender_ManualCellFont(t *testing.T) {
	f := renderWorkbook(t)

	styleID, err := f.GetCellStyle(SheetLiquidation, "H3")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.Equal(t, "Arial", style.Font.Family)
	assert.True(t, style.Font.Bold)
}

func TestSanitizeSheetName(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"Norte", "Norte"},
		{"Zona Centro", "Zona_Centro"},
		{"Ruta/7 [Sur]", "Ruta7_Sur"},
		{"  padded  ", "padded"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, sanitizeSheetName(tc.in), "input %q", tc.in)
	}
	long := sanitizeSheetName("Coordinación de operación metropolitana ampliada")
	assert.LessOrEqual(t, len([]rune(long)), 31)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "Mora", tableName("Mora"))
	assert.Equal(t, "T_06062025", tableName("06062025"))
	assert.Equal(t, "Zona_Centro", tableName("Zona-Centro"))
}
