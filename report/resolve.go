package report

import (
	"sort"
	"strings"
)

// Resolution maps canonical fields to the input columns that carry them.
// A field may resolve to several source columns (upstream exports
// occasionally duplicate PAR); priority follows configured alias order,
// then column order.
type Resolution struct {
	Columns map[string][]int
}

// First returns the highest-priority source column for a field, or -1.
func (r *Resolution) First(field string) int {
	if cols := r.Columns[field]; len(cols) > 0 {
		return cols[0]
	}
	return -1
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u",
	"ñ", "n", "Ñ", "n",
)

// normalizeHeader folds a header for matching: lower-cased, accents
// stripped, whitespace collapsed away. "Días de  mora" and "dias de mora"
// compare equal.
func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\n", " ")
	h = accentFolder.Replace(strings.TrimSpace(h))
	h = strings.ToLower(h)
	return strings.Join(strings.Fields(h), " ")
}

// ResolveColumns matches raw input headers against the canonical
// field → aliases table. Every required field must resolve or the call
// fails with a MissingColumnError listing each unresolved field.
// Matching is deterministic: for each field the first alias in configured
// order that matches any header wins first position; remaining matching
// headers follow in column order.
func ResolveColumns(headers []string, aliases map[string][]string, required []string) (*Resolution, error) {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = normalizeHeader(h)
	}

	res := &Resolution{Columns: make(map[string][]int)}
	for field, fieldAliases := range aliases {
		seen := make(map[int]bool)
		var cols []int
		for _, alias := range fieldAliases {
			a := normalizeHeader(alias)
			for i, h := range norm {
				if h == a && !seen[i] {
					seen[i] = true
					cols = append(cols, i)
				}
			}
		}
		if len(cols) > 0 {
			res.Columns[field] = cols
		}
	}

	var missing []string
	for _, field := range required {
		if _, ok := res.Columns[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingColumnError{Fields: missing}
	}
	return res, nil
}
