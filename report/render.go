package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"Crediflexi/internal/config"

	"github.com/xuri/excelize/v2"
)

// RenderOptions carries the run-specific presentation decisions the
// caller owns: the full-dataset sheet is named for the run date so the
// liquidation formulas can reference it.
type RenderOptions struct {
	FullSheetName string
}

// Sheet names fixed by the report layout.
const (
	SheetMora        = "Mora"
	SheetOverdue     = "Cuentas con saldo vencido"
	SheetLiquidation = "Liquidación anticipada"
)

var liquidationColumns = []string{
	"Código acreditado",
	"Ciclo",
	"Nombre del acreditado",
	"Saldo interés vencido",
	"Saldo comisión vencida",
	"Saldo recargos",
	"Saldo capital",
	"Intereses del próximo pago sin vencer",
	"Comisiones del próximo pago sin vencer",
	"Cantidad a liquidar",
	"Cálculo válido hasta el próximo pago",
}

var liquidationWidths = []float64{18, 12, 25, 20, 20, 15, 18, 22, 22, 20, 25}

// liquidationLookups maps liquidation sheet cells (row 3) to the
// canonical field each VLOOKUP pulls from the full-dataset sheet, with
// the formula fallback used when the code is not found.
var liquidationLookups = []struct {
	cell     string
	field    string
	fallback string
}{
	{"B3", config.FieldCycle, `""`},
	{"C3", config.FieldName, `""`},
	{"D3", config.FieldInterest, "0"},
	{"E3", config.FieldCommission, "0"},
	{"F3", config.FieldSurcharges, "0"},
	{"G3", config.FieldCapital, "0"},
}

type renderer struct {
	f   *excelize.File
	cfg config.ReportConfig

	headerBold   int
	headerBlue   int
	currency     int
	date         int
	text         int
	percent      int
	hyperlink    int
	titleGreen   int
	titleBlue    int
	manualGreen  int
	usedSheets   map[string]bool
	usedTableIDs map[string]bool
}

// Render writes every partition to a styled sheet and returns the
// workbook bytes. Sheet order: full dataset, Mora, overdue-balance (when
// non-empty), liquidation, then one sheet per coordination. Failures here
// abort the run with a RenderError; no partial workbook is returned.
func Render(p *Partitions, cfg config.ReportConfig, opts RenderOptions) ([]byte, error) {
	r := &renderer{
		f:            excelize.NewFile(),
		cfg:          cfg,
		usedSheets:   map[string]bool{},
		usedTableIDs: map[string]bool{},
	}
	defer r.f.Close()

	if err := r.makeStyles(); err != nil {
		return nil, &RenderError{Err: err}
	}

	fullSheet := sanitizeSheetName(opts.FullSheetName)
	if fullSheet == "" {
		fullSheet = time.Now().Format("02012006")
	}
	r.f.SetSheetName("Sheet1", fullSheet)
	r.usedSheets[fullSheet] = true
	if err := r.writeDataSheet(fullSheet, p.Full, sheetLayout{condFormat: true}); err != nil {
		return nil, err
	}

	if err := r.newSheet(SheetMora); err != nil {
		return nil, err
	}
	if err := r.writeDataSheet(SheetMora, p.Mora, sheetLayout{condFormat: true, tracking: true, moraBlue: true}); err != nil {
		return nil, err
	}

	if len(p.OverdueNoMora.Rows) > 0 {
		if err := r.newSheet(SheetOverdue); err != nil {
			return nil, err
		}
		if err := r.writeDataSheet(SheetOverdue, p.OverdueNoMora, sheetLayout{}); err != nil {
			return nil, err
		}
	}

	if err := r.newSheet(SheetLiquidation); err != nil {
		return nil, err
	}
	if err := r.writeLiquidationSheet(fullSheet, p.Full); err != nil {
		return nil, err
	}

	for _, coord := range p.Coordinations {
		name := sanitizeSheetName(coord.Name)
		if err := r.newSheet(name); err != nil {
			return nil, err
		}
		if err := r.writeDataSheet(name, coord.Data, sheetLayout{condFormat: true}); err != nil {
			return nil, err
		}
	}

	buf, err := r.f.WriteToBuffer()
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

func (r *renderer) newSheet(name string) error {
	if r.usedSheets[name] {
		return &RenderError{Sheet: name, Err: fmt.Errorf("sheet name collision")}
	}
	if _, err := r.f.NewSheet(name); err != nil {
		return &RenderError{Sheet: name, Err: err}
	}
	r.usedSheets[name] = true
	return nil
}

func (r *renderer) makeStyles() error {
	var err error
	st := r.cfg.Style
	if r.headerBold, err = r.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return err
	}
	if r.headerBlue, err = r.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{st.LightBlue}, Pattern: 1},
	}); err != nil {
		return err
	}
	currencyFmt := st.CurrencyFormat
	if r.currency, err = r.f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt}); err != nil {
		return err
	}
	dateFmt := st.DateFormat
	if r.date, err = r.f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt}); err != nil {
		return err
	}
	textFmt := "@"
	if r.text, err = r.f.NewStyle(&excelize.Style{CustomNumFmt: &textFmt}); err != nil {
		return err
	}
	percentFmt := "0%"
	if r.percent, err = r.f.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt}); err != nil {
		return err
	}
	if r.hyperlink, err = r.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "0000FF", Underline: "single"},
	}); err != nil {
		return err
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	if r.titleGreen, err = r.f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{r.cfg.CallCenterBlock.Fill}, Pattern: 1},
		Alignment: center,
	}); err != nil {
		return err
	}
	if r.titleBlue, err = r.f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{r.cfg.FieldBlock.Fill}, Pattern: 1},
		Alignment: center,
	}); err != nil {
		return err
	}
	if r.manualGreen, err = r.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Family: "Arial", Size: 10, Bold: true, Color: "2C2C2C"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{st.LightGreen}, Pattern: 1},
	}); err != nil {
		return err
	}
	return nil
}

type sheetLayout struct {
	tracking   bool // append the manual-entry tracking blocks (Mora only)
	condFormat bool // color scale on the delinquency column
	moraBlue   bool // blue fills on the saldo headers (Mora only)
}

type columnKind int

const (
	kindText columnKind = iota
	kindCode
	kindCurrency
	kindDate
	kindPar
	kindLink
	kindNumber
)

func (r *renderer) classifyColumns(ds *Dataset) []columnKind {
	kinds := make([]columnKind, len(ds.Headers))
	parCol := ds.Col(config.FieldPar)
	moraCol := ds.Col(config.FieldMora)
	for i, h := range ds.Headers {
		n := normalizeHeader(h)
		switch {
		case i == parCol:
			kinds[i] = kindPar
		case i == moraCol:
			kinds[i] = kindNumber
		case h == LinkColumnHeader:
			kinds[i] = kindLink
		case isCodeHeader(h):
			kinds[i] = kindCode
		// Date keywords outrank currency: "Último pago" is a date even
		// though "pago" alone marks an amount.
		case matchesAnyKeyword(n, r.cfg.DateKeywords):
			kinds[i] = kindDate
		case matchesAnyKeyword(n, r.cfg.CurrencyKeywords):
			kinds[i] = kindCurrency
		}
	}
	return kinds
}

func matchesAnyKeyword(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(normalized, normalizeHeader(kw)) {
			return true
		}
	}
	return false
}

// writeDataSheet writes one partition: headers in row 2, data from row 3,
// row 1 reserved for the tracking-block titles.
func (r *renderer) writeDataSheet(sheet string, ds *Dataset, layout sheetLayout) error {
	if err := r.writeDataSheetInner(sheet, ds, layout); err != nil {
		if _, ok := err.(*RenderError); ok {
			return err
		}
		return &RenderError{Sheet: sheet, Err: err}
	}
	return nil
}

func (r *renderer) writeDataSheetInner(sheet string, ds *Dataset, layout sheetLayout) error {
	f := r.f
	st := r.cfg.Style
	kinds := r.classifyColumns(ds)
	nCols := len(ds.Headers)
	widths := make([]float64, nCols)

	// Header row.
	for c, h := range ds.Headers {
		cell, err := excelize.CoordinatesToCellName(c+1, 2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		widths[c] = float64(utf8.RuneCountInString(h))
	}

	// Data rows.
	for i, row := range ds.Rows {
		excelRow := i + 3
		for c, v := range row.Cells {
			cell, err := excelize.CoordinatesToCellName(c+1, excelRow)
			if err != nil {
				return err
			}
			var value interface{} = v
			switch kinds[c] {
			case kindCurrency:
				if d, ok := parseMoney(v); ok {
					value, _ = d.Float64()
				}
			case kindDate:
				if t, err := time.Parse("02/01/2006", strings.TrimSpace(v)); err == nil {
					value = t
				}
			case kindNumber:
				if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
					value = n
				}
			case kindLink:
				value = row.LinkText
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
			if kinds[c] == kindLink && row.LinkURL != "" {
				if err := f.SetCellHyperLink(sheet, cell, row.LinkURL, "External"); err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, cell, cell, r.hyperlink); err != nil {
					return err
				}
			}
			if l := float64(utf8.RuneCountInString(v)); l > widths[c] {
				widths[c] = l
			}
		}
	}

	lastDataRow := len(ds.Rows) + 2
	totalCols := nCols
	if layout.tracking {
		var err error
		totalCols, err = r.writeTrackingBlocks(sheet, nCols)
		if err != nil {
			return err
		}
	}

	// Column number formats over the data region.
	if len(ds.Rows) > 0 {
		for c, kind := range kinds {
			var style int
			switch kind {
			case kindCurrency:
				style = r.currency
			case kindDate:
				style = r.date
			case kindCode:
				style = r.text
			case kindPar:
				style = r.percent
			default:
				continue
			}
			top, _ := excelize.CoordinatesToCellName(c+1, 3)
			bottom, _ := excelize.CoordinatesToCellName(c+1, lastDataRow)
			if err := f.SetCellStyle(sheet, top, bottom, style); err != nil {
				return err
			}
		}
	}

	// Formal Excel table over headers + data (+ tracking columns).
	lastCol, err := excelize.ColumnNumberToName(totalCols)
	if err != nil {
		return err
	}
	tableRange := fmt.Sprintf("A2:%s%d", lastCol, lastDataRow)
	if len(ds.Rows) == 0 {
		tableRange = fmt.Sprintf("A2:%s3", lastCol)
	}
	noStripes := false
	if err := f.AddTable(sheet, &excelize.Table{
		Range:           tableRange,
		Name:            r.tableNameFor(sheet),
		StyleName:       st.TableStyle,
		ShowRowStripes:  &noStripes,
		ShowFirstColumn: false,
		ShowLastColumn:  false,
	}); err != nil {
		return err
	}

	// Conditional color scale on the delinquency column.
	if layout.condFormat && len(ds.Rows) > 0 {
		if moraCol := ds.Col(config.FieldMora); moraCol >= 0 {
			colName, err := excelize.ColumnNumberToName(moraCol + 1)
			if err != nil {
				return err
			}
			area := fmt.Sprintf("%s3:%s%d", colName, colName, lastDataRow)
			err = f.SetConditionalFormat(sheet, area, []excelize.ConditionalFormatOptions{{
				Type:     "3_color_scale",
				Criteria: "=",
				MinType:  "min",
				MinColor: "#7AB800",
				MidType:  "percentile",
				MidValue: "50",
				MidColor: "#FFEB84",
				MaxType:  "max",
				MaxColor: "#FF6464",
			}})
			if err != nil {
				return err
			}
		}
	}

	// Header formatting: bold row, fixed height, light blue on the
	// delinquency header (and on the saldo headers in Mora).
	if err := f.SetRowHeight(sheet, 2, st.HeaderHeight); err != nil {
		return err
	}
	headerEnd, _ := excelize.CoordinatesToCellName(totalCols, 2)
	if err := f.SetCellStyle(sheet, "A2", headerEnd, r.headerBold); err != nil {
		return err
	}
	blueHeaders := map[string]bool{normalizeHeader("Días de mora"): true}
	if layout.moraBlue {
		for _, h := range r.cfg.MoraBlueColumns {
			blueHeaders[normalizeHeader(h)] = true
		}
	}
	for c, h := range ds.Headers {
		if blueHeaders[normalizeHeader(h)] {
			cell, _ := excelize.CoordinatesToCellName(c+1, 2)
			if err := f.SetCellStyle(sheet, cell, cell, r.headerBlue); err != nil {
				return err
			}
		}
	}

	// Column widths, capped.
	for c := 0; c < nCols; c++ {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		w := widths[c] + 2
		if w > st.MaxColumnWidth {
			w = st.MaxColumnWidth
		}
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return err
		}
	}

	return r.freezePanes(sheet)
}

// writeTrackingBlocks appends the manual-entry column groups to the Mora
// sheet: merged colored titles in row 1, block headers in row 2, data
// cells left empty for call-center and field-collection staff.
func (r *renderer) writeTrackingBlocks(sheet string, nCols int) (int, error) {
	f := r.f
	write := func(block config.TrackingBlock, startCol int, style int) error {
		endCol := startCol + len(block.Headers) - 1
		start, _ := excelize.CoordinatesToCellName(startCol, 1)
		end, _ := excelize.CoordinatesToCellName(endCol, 1)
		if err := f.MergeCell(sheet, start, end); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, start, block.Title); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, start, end, style); err != nil {
			return err
		}
		for i, h := range block.Headers {
			cell, _ := excelize.CoordinatesToCellName(startCol+i, 2)
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return err
			}
		}
		for i := range block.Headers {
			name, err := excelize.ColumnNumberToName(startCol + i)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(sheet, name, name, 24); err != nil {
				return err
			}
		}
		return nil
	}

	green := r.cfg.CallCenterBlock
	blue := r.cfg.FieldBlock
	if err := write(green, nCols+1, r.titleGreen); err != nil {
		return 0, err
	}
	if err := write(blue, nCols+1+len(green.Headers), r.titleBlue); err != nil {
		return 0, err
	}
	return nCols + len(green.Headers) + len(blue.Headers), nil
}

// writeLiquidationSheet builds the formula-driven lookup sheet: staff
// enter an account code in A3 and the row autocompletes from the
// full-dataset sheet, with manual cells for the unexpired amounts.
func (r *renderer) writeLiquidationSheet(fullSheet string, full *Dataset) error {
	f := r.f
	sheet := SheetLiquidation
	st := r.cfg.Style

	for i, h := range liquidationColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return &RenderError{Sheet: sheet, Err: err}
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, liquidationWidths[i]); err != nil {
			return &RenderError{Sheet: sheet, Err: err}
		}
	}

	// Merged "Montos Vencidos" banner over the overdue amount columns.
	if err := f.MergeCell(sheet, "D1", "F1"); err != nil {
		return &RenderError{Sheet: sheet, Err: err}
	}
	f.SetCellValue(sheet, "D1", "Montos Vencidos")
	if err := f.SetCellStyle(sheet, "D1", "F1", r.headerBlue); err != nil {
		return &RenderError{Sheet: sheet, Err: err}
	}

	f.SetRowHeight(sheet, 2, st.HeaderHeight)
	f.SetRowHeight(sheet, 3, 30)
	if err := f.SetCellStyle(sheet, "A2", "K2", r.headerBold); err != nil {
		return &RenderError{Sheet: sheet, Err: err}
	}

	// Lookup range over the full-dataset sheet: code in column A, rows
	// pinned so the formula survives row inserts on this sheet.
	lastCol, err := excelize.ColumnNumberToName(len(full.Headers))
	if err != nil {
		return &RenderError{Sheet: sheet, Err: err}
	}
	lookupRange := fmt.Sprintf("'%s'!A$2:%s$%d", fullSheet, lastCol, len(full.Rows)+2)

	for _, lk := range liquidationLookups {
		col := full.Col(lk.field)
		if col < 0 {
			f.SetCellValue(sheet, lk.cell, "")
			continue
		}
		formula := fmt.Sprintf("IFERROR(VLOOKUP(A3,%s,%d,FALSE),%s)", lookupRange, col+1, lk.fallback)
		if err := f.SetCellFormula(sheet, lk.cell, formula); err != nil {
			return &RenderError{Sheet: sheet, Err: err}
		}
	}
	if err := f.SetCellFormula(sheet, "J3", "SUM(D3:I3)"); err != nil {
		return &RenderError{Sheet: sheet, Err: err}
	}

	// Currency over the amount columns, text on the code cell so leading
	// zeros survive, green fill on the manual-entry cells.
	if err := f.SetCellStyle(sheet, "D3", "J3", r.currency); err != nil {
		return &RenderError{Sheet: sheet, Err: err}
	}
	if err := f.SetCellStyle(sheet, "A3", "A3", r.text); err != nil {
		return &RenderError{Sheet: sheet, Err: err}
	}
	for _, cell := range []string{"H3", "I3", "K3"} {
		if err := f.SetCellStyle(sheet, cell, cell, r.manualGreen); err != nil {
			return &RenderError{Sheet: sheet, Err: err}
		}
	}

	if err := r.freezePanes(sheet); err != nil {
		return &RenderError{Sheet: sheet, Err: err}
	}
	return nil
}

func (r *renderer) freezePanes(sheet string) error {
	return r.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      2,
		TopLeftCell: r.cfg.Style.FreezePanes,
		ActivePane:  "bottomLeft",
	})
}

var invalidSheetChars = regexp.MustCompile(`[\\/?*\[\]:]`)
var invalidTableChars = regexp.MustCompile(`[^a-zA-Z0-9_.]`)

// sanitizeSheetName fits a coordination name into Excel's sheet naming
// rules: forbidden characters removed, spaces underscored, 31 chars max.
func sanitizeSheetName(name string) string {
	name = invalidSheetChars.ReplaceAllString(strings.TrimSpace(name), "")
	name = strings.ReplaceAll(name, " ", "_")
	if runes := []rune(name); len(runes) > 31 {
		name = string(runes[:31])
	}
	return name
}

// tableName derives a valid Excel table name from a sheet name: letters,
// digits, underscores and dots only, never starting with a digit.
func tableName(sheet string) string {
	name := strings.ReplaceAll(strings.ReplaceAll(sheet, " ", "_"), "-", "_")
	name = invalidTableChars.ReplaceAllString(name, "")
	if name == "" {
		return "T_Table"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "T_" + name
	}
	return name
}

// tableNameFor sanitizes and deduplicates: two sheets whose names differ
// only in stripped characters must not share a table name.
func (r *renderer) tableNameFor(sheet string) string {
	base := tableName(sheet)
	name := base
	for i := 2; r.usedTableIDs[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	r.usedTableIDs[name] = true
	return name
}
