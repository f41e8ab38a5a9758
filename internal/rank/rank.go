package rank

import (
	"cmp"
	"slices"
	"strings"

	"github.com/everstacklabs/scout/internal/catalog"
)

// Scored pairs a record with its relevance score.
type Scored struct {
	Record catalog.ModelRecord
	Score  int
}

// Score counts, per record, how many distinct terms occur as a
// case-insensitive substring of its display name, description and id.
// With no terms every record scores 1 and input order is kept. Otherwise
// records scoring 0 are dropped and the rest are stably ordered by score,
// highest first.
func Score(records []catalog.ModelRecord, terms []string) []Scored {
	out := make([]Scored, 0, len(records))
	if len(terms) == 0 {
		for _, r := range records {
			out = append(out, Scored{Record: r, Score: 1})
		}
		return out
	}

	needles := distinctLower(terms)
	for _, r := range records {
		haystack := strings.ToLower(r.DisplayName + " " + r.Description + " " + r.ID)
		score := 0
		for _, n := range needles {
			if strings.Contains(haystack, n) {
				score++
			}
		}
		if score > 0 {
			out = append(out, Scored{Record: r, Score: score})
		}
	}

	slices.SortStableFunc(out, func(a, b Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

func distinctLower(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// Records strips the scores.
func Records(scored []Scored) []catalog.ModelRecord {
	out := make([]catalog.ModelRecord, len(scored))
	for i, s := range scored {
		out[i] = s.Record
	}
	return out
}
