package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"Crediflexi/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func xlsxBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatXLSX, DetectFormat([]byte{0x50, 0x4B, 0x03, 0x04, 0x00}))
	assert.Equal(t, FormatXLS, DetectFormat([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}))
	assert.Equal(t, FormatCSV, DetectFormat([]byte("Código,Días de mora\n1,2\n")))
	assert.Equal(t, FormatUnknown, DetectFormat(nil))
	assert.Equal(t, FormatUnknown, DetectFormat([]byte{0x01, 0x00, 0x02}))
}

func TestParseSpreadsheet_XLSXRoundTrip(t *testing.T) {
	data := xlsxBytes(t, [][]string{
		{"Código acreditado", "Días de mora"},
		{"001053", "15"},
	})

	rows, err := ParseSpreadsheet(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Código acreditado", rows[0][0])
	assert.Equal(t, "15", rows[1][1])
}

func TestParseSpreadsheet_XLSFixture(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "cartera.xls"))
	require.NoError(t, err)
	require.Equal(t, FormatXLS, DetectFormat(data))

	rows, err := ParseSpreadsheet(data)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Código acreditado", "Días de mora", "Coordinación"}, rows[0])
	assert.Equal(t, []string{"1053.0", "15", "Norte"}, rows[1])
	assert.Equal(t, []string{"88", "0", "Sur"}, rows[2])
}

func TestParseSpreadsheet_CSV(t *testing.T) {
	data := []byte("Código acreditado,Días de mora,Coordinación\n1053,15,Norte\n88,\"0\",Sur\n")

	rows, err := ParseSpreadsheet(data)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1053", "15", "Norte"}, rows[1])
}

func TestParseSpreadsheet_RejectsEmptyAndOversized(t *testing.T) {
	_, err := ParseSpreadsheet(nil)
	assert.EqualError(t, err, ErrEmptyFile)

	big := bytes.Repeat([]byte("a"), config.MaxFileSize+1)
	_, err = ParseSpreadsheet(big)
	assert.EqualError(t, err, ErrFileTooLarge)
}

func TestHeaderAndData(t *testing.T) {
	headers, data, err := headerAndData([][]string{
		{"Código\nacreditado", " Días de mora "},
		{"1", "2", "extra"},
		{"3"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Código acreditado", "Días de mora"}, headers)
	// Short rows are padded to header width; long rows keep their cells.
	assert.Equal(t, []string{"3", ""}, data[1][:2])
	assert.Len(t, data, 2)

	_, _, err = headerAndData([][]string{{"solo encabezado"}})
	assert.EqualError(t, err, ErrEmptyFile)
}
