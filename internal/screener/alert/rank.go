package alert

import "sort"

// DefaultKindOrder ranks alert categories for presentation, most severe
// first.
var DefaultKindOrder = []Kind{KindBigTrade, KindVolumeSpike, KindPriceMove}

// Ranker orders admitted alerts for the display: kind category first, then
// magnitude descending, then recency descending.
type Ranker struct {
	rank map[Kind]int
}

// NewRanker creates a ranker with the given kind order. With no arguments
// DefaultKindOrder applies. Kinds missing from the order sort last.
func NewRanker(order ...Kind) *Ranker {
	if len(order) == 0 {
		order = DefaultKindOrder
	}
	rank := make(map[Kind]int, len(order))
	for i, k := range order {
		rank[k] = i
	}
	return &Ranker{rank: rank}
}

func (r *Ranker) kindRank(k Kind) int {
	if i, ok := r.rank[k]; ok {
		return i
	}
	return len(r.rank)
}

// Rank returns a sorted copy of alerts; the input is left untouched.
func (r *Ranker) Rank(alerts []Alert) []Alert {
	out := make([]Alert, len(alerts))
	copy(out, alerts)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := r.kindRank(a.Kind), r.kindRank(b.Kind); ra != rb {
			return ra < rb
		}
		if a.Magnitude != b.Magnitude {
			return a.Magnitude > b.Magnitude
		}
		return a.Time.After(b.Time)
	})
	return out
}
