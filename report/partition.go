package report

import (
	"strings"

	"Crediflexi/internal/config"

	"github.com/shopspring/decimal"
)

var oneDecimal = decimal.NewFromInt(1)

// Coordination is one per-region partition of the dataset.
type Coordination struct {
	Name string
	Data *Dataset
}

// Partitions holds the logical views of one report run, in sheet order.
// Views are owned here for the duration of the run and consumed by the
// renderer; row order everywhere matches the cleaned dataset.
type Partitions struct {
	Full          *Dataset
	Mora          *Dataset
	OverdueNoMora *Dataset
	Coordinations []Coordination
}

// Partition derives the report views from the enriched dataset:
//
//   - Full: every record, account code leading.
//   - Mora: delinquency days >= 1.
//   - OverdueNoMora: overdue balance >= 1 with delinquency days <= 0 (or
//     unknown) — disjoint from Mora by construction.
//   - One view per distinct non-empty coordination, in first-seen order.
//
// Records with unparseable delinquency days appear only in Full and in
// their coordination view.
func Partition(ds *Dataset) *Partitions {
	p := &Partitions{}

	p.Full = ds.clone()
	p.Full.moveColumnFront(config.FieldCode)

	p.Mora = ds.subset(func(r *Row) bool {
		return r.MoraKnown && r.MoraDays >= 1
	})

	p.OverdueNoMora = ds.subset(func(r *Row) bool {
		return r.Overdue.GreaterThanOrEqual(oneDecimal) && (!r.MoraKnown || r.MoraDays <= 0)
	})

	seen := make(map[string]int)
	for _, r := range ds.Rows {
		name := strings.TrimSpace(r.Coordination)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; !ok {
			seen[name] = len(p.Coordinations)
			p.Coordinations = append(p.Coordinations, Coordination{
				Name: name,
				Data: ds.subset(func(row *Row) bool {
					return strings.TrimSpace(row.Coordination) == name
				}),
			})
		}
	}

	return p
}

// SplitCollaborators divides the enriched dataset into the customer
// portfolio and the internal-staff records. The two halves cover the
// dataset exactly: every record lands in one of them and none in both.
func SplitCollaborators(ds *Dataset) (main, collaborators *Dataset) {
	main = ds.subset(func(r *Row) bool { return !r.Collaborator })
	collaborators = ds.subset(func(r *Row) bool { return r.Collaborator })
	return main, collaborators
}
