package report

import (
	"Crediflexi/internal/config"
)

// FilterFraud removes every record whose normalized account code is on the
// fraud list. Both sides compare in the same zero-padded form. Returns the
// filtered dataset and how many records were removed; the count is
// informational and reported alongside success.
func FilterFraud(ds *Dataset, fraudCodes []string) (*Dataset, int) {
	blocked := make(map[string]bool, len(fraudCodes))
	for _, c := range fraudCodes {
		blocked[NormalizeCode(c, config.CodeWidth)] = true
	}
	out := ds.subset(func(r *Row) bool {
		return !blocked[r.Code]
	})
	return out, len(ds.Rows) - len(out.Rows)
}
