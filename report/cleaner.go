package report

import (
	"log"
	"sort"
	"strconv"
	"strings"

	"Crediflexi/internal/config"

	"github.com/shopspring/decimal"
)

// CleanStats reports per-record conditions recovered during cleaning.
type CleanStats struct {
	DroppedNoCode   int
	PhoneFlagged    int
	MoraUnparseable int
}

// NormalizeCode coerces an account code to its canonical zero-padded
// string form. Spreadsheets round-trip codes through floats ("1053.0"),
// so numeric-looking values are parsed and re-padded; other strings pass
// through trimmed.
func NormalizeCode(v string, width int) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	numeric := strings.ReplaceAll(v, ",", "")
	if f, err := strconv.ParseFloat(numeric, 64); err == nil && f >= 0 {
		s := strconv.FormatInt(int64(f), 10)
		for len(s) < width {
			s = "0" + s
		}
		return s
	}
	return v
}

// NormalizePhone strips everything but digits and fits the result to the
// canonical length: shorter numbers are left-padded, longer ones keep
// their trailing digits. A value with no digits at all cannot be
// normalized; it is returned unchanged with ok=false.
func NormalizePhone(v string, width int) (string, bool) {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return strings.TrimSpace(v), strings.TrimSpace(v) == ""
	}
	if len(digits) > width {
		digits = digits[len(digits)-width:]
	}
	for len(digits) < width {
		digits = "0" + digits
	}
	return digits, true
}

// parseDays parses a delinquency-day count, tolerating float forms.
func parseDays(v string) (int, bool) {
	v = strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// parseMoney parses a currency cell, stripping thousands separators.
func parseMoney(v string) (decimal.Decimal, bool) {
	v = strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
	v = strings.TrimPrefix(v, "$")
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func isPhoneHeader(h string) bool {
	n := normalizeHeader(h)
	return strings.Contains(n, "telefono") || strings.Contains(n, "medio comunic")
}

func isCodeHeader(h string) bool {
	n := normalizeHeader(h)
	return strings.HasPrefix(n, "codigo")
}

// Clean transforms resolved raw rows into the canonical in-memory dataset.
// The input rows are never mutated; every transform lands in new storage.
// Records without an account code after normalization are dropped with a
// logged reason. The dataset comes out ordered by delinquency days
// descending (stable), which every later partition preserves.
func Clean(headers []string, data [][]string, res *Resolution, cfg config.ReportConfig) (*Dataset, CleanStats, error) {
	stats := CleanStats{}

	// Duplicate source columns mapping to one canonical field collapse to
	// a single output column: values merge first-non-empty in column
	// order, extra columns are discarded.
	dropCol := make(map[int]bool)
	mergeInto := make(map[int][]int) // kept column -> ordered source columns
	for _, cols := range res.Columns {
		if len(cols) < 2 {
			continue
		}
		ordered := append([]int(nil), cols...)
		sort.Ints(ordered)
		keep := ordered[0]
		mergeInto[keep] = ordered
		for _, c := range ordered[1:] {
			dropCol[c] = true
		}
	}

	// Output column layout.
	outIdx := make([]int, 0, len(headers)) // source column per output column
	srcToOut := make(map[int]int, len(headers))
	var outHeaders []string
	for i, h := range headers {
		if dropCol[i] {
			continue
		}
		srcToOut[i] = len(outHeaders)
		outIdx = append(outIdx, i)
		outHeaders = append(outHeaders, h)
	}

	ds := &Dataset{
		Headers: outHeaders,
		Fields:  make(map[string]int),
	}
	for field := range res.Columns {
		src := res.First(field)
		if cols, ok := mergeInto[src]; ok {
			src = cols[0]
		}
		// A field whose priority column was merged away maps to the kept one.
		if dropCol[src] {
			for keep, cols := range mergeInto {
				for _, c := range cols {
					if c == src {
						src = keep
					}
				}
			}
		}
		if out, ok := srcToOut[src]; ok {
			ds.Fields[field] = out
		}
	}

	codeCol := res.First(config.FieldCode)
	moraCol := res.First(config.FieldMora)
	coordCol := res.First(config.FieldCoordination)
	geoCol := res.First(config.FieldGeolocation)
	overdueCol := res.First(config.FieldOverdue)

	phoneCols := make(map[int]bool)
	codeCols := make(map[int]bool)
	for i, h := range headers {
		if isPhoneHeader(h) {
			phoneCols[i] = true
		}
		if isCodeHeader(h) {
			codeCols[i] = true
		}
	}

	for rowNum, raw := range data {
		cells := make([]string, len(outIdx))
		for out, src := range outIdx {
			v := raw[src]
			if cols, ok := mergeInto[src]; ok {
				for _, c := range cols {
					if strings.TrimSpace(raw[c]) != "" {
						v = raw[c]
						break
					}
				}
			}
			cells[out] = strings.TrimSpace(v)
		}

		row := &Row{Cells: cells}

		for out, src := range outIdx {
			switch {
			case codeCols[src]:
				cells[out] = NormalizeCode(cells[out], config.CodeWidth)
			case phoneCols[src]:
				p, ok := NormalizePhone(cells[out], config.PhoneWidth)
				cells[out] = p
				if !ok {
					row.PhoneFlagged = true
					stats.PhoneFlagged++
				}
			}
		}

		// Grouped-mode inputs may be keyed on the group identifier instead
		// of the account code; the no-code invariant applies only when a
		// code column resolved.
		if codeCol >= 0 {
			row.Code = NormalizeCode(raw[codeCol], config.CodeWidth)
			if row.Code == "" {
				stats.DroppedNoCode++
				log.Printf("[Clean] dropping row %d: no account code after normalization", rowNum+2)
				continue
			}
		}
		if moraCol >= 0 {
			if days, ok := parseDays(raw[moraCol]); ok {
				row.MoraDays = days
				row.MoraKnown = true
			} else {
				stats.MoraUnparseable++
				log.Printf("[Clean] row %d code=%s: unparseable delinquency days %q", rowNum+2, row.Code, raw[moraCol])
			}
		}
		if coordCol >= 0 {
			row.Coordination = strings.TrimSpace(raw[coordCol])
		}
		if geoCol >= 0 {
			row.Geolocation = strings.TrimSpace(raw[geoCol])
		}
		if overdueCol >= 0 {
			if d, ok := parseMoney(raw[overdueCol]); ok {
				row.Overdue = d
			}
		}

		ds.Rows = append(ds.Rows, row)
	}

	// Highest risk first; unknown mora sorts with current accounts.
	sort.SliceStable(ds.Rows, func(i, j int) bool {
		a, b := ds.Rows[i], ds.Rows[j]
		ad, bd := a.MoraDays, b.MoraDays
		if !a.MoraKnown {
			ad = 0
		}
		if !b.MoraKnown {
			bd = 0
		}
		return ad > bd
	})

	return ds, stats, nil
}
