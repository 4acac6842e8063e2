package marketstore

import (
	"errors"
	"sync"
	"time"
)

// ErrStaleSnapshot is returned when an update carries a timestamp that is not
// newer than the last recorded snapshot for the symbol. The window is left
// untouched in that case.
var ErrStaleSnapshot = errors.New("stale snapshot")

// Store keeps a time-bounded rolling window of snapshots and trades per
// symbol. Windows are independent: updates to different symbols only contend
// on the map lock while a new symbol is being registered.
type Store struct {
	globalMu sync.RWMutex
	span     time.Duration
	data     map[string]*symbolWindow
}

type symbolWindow struct {
	mu        sync.Mutex
	snapshots []Snapshot
	trades    []Trade
}

// New creates a store whose windows retain entries no older than span,
// measured against the latest snapshot time of each symbol.
func New(span time.Duration) *Store {
	return &Store{
		span: span,
		data: make(map[string]*symbolWindow),
	}
}

func (s *Store) symbolFor(symbol string) *symbolWindow {
	// Fast path: the symbol is already registered
	s.globalMu.RLock()
	w, ok := s.data[symbol]
	s.globalMu.RUnlock()
	if ok {
		return w
	}

	// Register the symbol under the exclusive lock
	s.globalMu.Lock()
	if w, ok = s.data[symbol]; !ok {
		w = &symbolWindow{}
		s.data[symbol] = w
	}
	s.globalMu.Unlock()
	return w
}

// Update appends a snapshot and its trades to the symbol's rolling window and
// evicts entries older than the window span. Out-of-order snapshots are
// rejected with ErrStaleSnapshot.
//
// It returns the trades that are new for this cycle: overlapping recent-trade
// fetches repeat trades already seen, so anything at or before the previous
// snapshot time is dropped.
func (s *Store) Update(symbol string, snap Snapshot, trades []Trade) ([]Trade, error) {
	w := s.symbolFor(symbol)
	w.mu.Lock()
	defer w.mu.Unlock()

	var prev time.Time
	if n := len(w.snapshots); n > 0 {
		prev = w.snapshots[n-1].Time
		if !snap.Time.After(prev) {
			return nil, ErrStaleSnapshot
		}
	}

	w.snapshots = append(w.snapshots, snap)

	var fresh []Trade
	for _, t := range trades {
		if t.Time.After(prev) {
			fresh = append(fresh, t)
		}
	}
	w.trades = append(w.trades, fresh...)

	cutoff := snap.Time.Add(-s.span)
	w.evict(cutoff)
	return fresh, nil
}

// evict drops entries with timestamps before cutoff. Caller must hold w.mu.
// Snapshots are ordered so a prefix scan suffices; trades may interleave live
// and polled data and are filtered in place.
func (w *symbolWindow) evict(cutoff time.Time) {
	i := 0
	for i < len(w.snapshots) && w.snapshots[i].Time.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.snapshots = append(w.snapshots[:0], w.snapshots[i:]...)
	}

	kept := w.trades[:0]
	for _, t := range w.trades {
		if !t.Time.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	w.trades = kept
}

// WindowFor returns a copy of the symbol's current rolling window. Unknown
// symbols yield an empty window.
func (s *Store) WindowFor(symbol string) Window {
	s.globalMu.RLock()
	w, ok := s.data[symbol]
	s.globalMu.RUnlock()
	if !ok {
		return Window{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	out := Window{
		Snapshots: make([]Snapshot, len(w.snapshots)),
		Trades:    make([]Trade, len(w.trades)),
	}
	copy(out.Snapshots, w.snapshots)
	copy(out.Trades, w.trades)
	return out
}

// Symbols lists all symbols with at least one recorded snapshot.
func (s *Store) Symbols() []string {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	out := make([]string, 0, len(s.data))
	for symbol := range s.data {
		out = append(out, symbol)
	}
	return out
}
