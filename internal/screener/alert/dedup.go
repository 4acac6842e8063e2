package alert

import (
	"sync"
	"time"
)

// Deduper suppresses repeat alerts of the same (symbol, kind) within a
// cooldown window. Each entry is a two-state machine, Idle or Cooling,
// driven purely by alert timestamps and evaluated lazily on each Admit call.
type Deduper struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[cooldownKey]time.Time
}

type cooldownKey struct {
	symbol string
	kind   Kind
}

// NewDeduper creates a deduper with the given cooldown between admitted
// alerts of the same (symbol, kind).
func NewDeduper(cooldown time.Duration) *Deduper {
	return &Deduper{
		cooldown: cooldown,
		last:     make(map[cooldownKey]time.Time),
	}
}

// Admit reports whether the alert passes the cooldown. An admitted alert
// records its timestamp as the start of the next cooldown period. Alerts
// exactly one cooldown apart are admitted.
func (d *Deduper) Admit(a Alert) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := cooldownKey{symbol: a.Symbol, kind: a.Kind}
	if last, ok := d.last[k]; ok && a.Time.Sub(last) < d.cooldown {
		return false
	}
	d.last[k] = a.Time
	return true
}

// CombinedSignal reports whether the symbol had alerts of more than one kind
// admitted within twice the cooldown of at. A symbol firing on several
// independent classifiers at once is a stronger signal than any one alone.
func (d *Deduper) CombinedSignal(symbol string, at time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	horizon := 2 * d.cooldown
	kinds := 0
	for k, last := range d.last {
		if k.symbol == symbol && at.Sub(last) < horizon {
			kinds++
		}
	}
	return kinds > 1
}
