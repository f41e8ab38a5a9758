package rank

import (
	"cmp"
	"slices"
	"strings"

	"github.com/everstacklabs/scout/internal/catalog"
)

// Criterion names a total order over records.
type Criterion string

const (
	ByPrice   Criterion = "price"
	ByContext Criterion = "context"
	ByCreated Criterion = "created"
	ByName    Criterion = "name"
)

// Criteria lists the supported sort criteria.
var Criteria = []Criterion{ByPrice, ByContext, ByCreated, ByName}

// Valid reports whether c is a supported criterion.
func (c Criterion) Valid() bool {
	return slices.Contains(Criteria, c)
}

// Sort returns a stably sorted copy of records. An unknown or empty
// criterion returns the records in their given order.
func Sort(records []catalog.ModelRecord, c Criterion) []catalog.ModelRecord {
	return sortBy(records, c, func(r catalog.ModelRecord) catalog.ModelRecord { return r })
}

// SortScored is Sort for scored records; scores do not take part.
func SortScored(items []Scored, c Criterion) []Scored {
	return sortBy(items, c, func(s Scored) catalog.ModelRecord { return s.Record })
}

func sortBy[T any](items []T, c Criterion, record func(T) catalog.ModelRecord) []T {
	out := slices.Clone(items)
	compare := comparator(c)
	if compare == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		return compare(record(a), record(b))
	})
	return out
}

func comparator(c Criterion) func(a, b catalog.ModelRecord) int {
	switch c {
	case ByPrice:
		return func(a, b catalog.ModelRecord) int {
			return a.Pricing.TotalPer1M().Cmp(b.Pricing.TotalPer1M())
		}
	case ByContext:
		return func(a, b catalog.ModelRecord) int {
			return cmp.Compare(b.ContextLength, a.ContextLength)
		}
	case ByCreated:
		return func(a, b catalog.ModelRecord) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		}
	case ByName:
		return func(a, b catalog.ModelRecord) int {
			return strings.Compare(a.DisplayName, b.DisplayName)
		}
	default:
		return nil
	}
}
