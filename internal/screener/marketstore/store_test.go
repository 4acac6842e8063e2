package marketstore

import (
	"errors"
	"testing"
	"time"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func snapAt(symbol string, price, volume float64, at time.Time) Snapshot {
	return Snapshot{Symbol: symbol, Price: price, Volume24h: volume, Time: at}
}

func tradeAt(symbol string, notional float64, at time.Time) Trade {
	return Trade{Symbol: symbol, Side: SideBuy, Price: notional, Size: 1, Notional: notional, Time: at}
}

// go test -v --run TestUpdateInOrder
func TestUpdateInOrder(t *testing.T) {
	s := New(10 * time.Minute)

	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * 5 * time.Second)
		if _, err := s.Update("BTCUSDT", snapAt("BTCUSDT", 100, 1000, at), nil); err != nil {
			t.Fatalf("in-order update %d rejected: %v", i, err)
		}
	}

	w := s.WindowFor("BTCUSDT")
	if len(w.Snapshots) != 5 {
		t.Errorf("expected 5 snapshots, got %d", len(w.Snapshots))
	}
}

// go test -v --run TestEviction
func TestEviction(t *testing.T) {
	span := 10 * time.Second
	s := New(span)

	times := []time.Duration{0, 5 * time.Second, 12 * time.Second}
	for _, d := range times {
		at := base.Add(d)
		trades := []Trade{tradeAt("BTCUSDT", 100, at)}
		if _, err := s.Update("BTCUSDT", snapAt("BTCUSDT", 100, 1000, at), trades); err != nil {
			t.Fatal(err)
		}
	}

	w := s.WindowFor("BTCUSDT")
	cutoff := base.Add(12 * time.Second).Add(-span)
	for _, snap := range w.Snapshots {
		if snap.Time.Before(cutoff) {
			t.Errorf("snapshot at %v survived eviction, cutoff %v", snap.Time, cutoff)
		}
	}
	for _, trade := range w.Trades {
		if trade.Time.Before(cutoff) {
			t.Errorf("trade at %v survived eviction, cutoff %v", trade.Time, cutoff)
		}
	}
	if len(w.Snapshots) != 2 {
		t.Errorf("expected 2 snapshots after eviction, got %d", len(w.Snapshots))
	}
}

// go test -v --run TestStaleSnapshotRejected
func TestStaleSnapshotRejected(t *testing.T) {
	s := New(10 * time.Minute)

	if _, err := s.Update("BTCUSDT", snapAt("BTCUSDT", 100, 1000, base), nil); err != nil {
		t.Fatal(err)
	}
	before := s.WindowFor("BTCUSDT")

	// Earlier timestamp
	_, err := s.Update("BTCUSDT", snapAt("BTCUSDT", 99, 900, base.Add(-time.Second)),
		[]Trade{tradeAt("BTCUSDT", 100, base)})
	if !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("expected ErrStaleSnapshot, got %v", err)
	}

	// Equal timestamp is stale too
	if _, err := s.Update("BTCUSDT", snapAt("BTCUSDT", 99, 900, base), nil); !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("expected ErrStaleSnapshot for equal timestamp, got %v", err)
	}

	// A rejected update must not mutate the window
	after := s.WindowFor("BTCUSDT")
	if len(after.Snapshots) != len(before.Snapshots) || len(after.Trades) != len(before.Trades) {
		t.Errorf("stale update mutated window: before %d/%d, after %d/%d",
			len(before.Snapshots), len(before.Trades), len(after.Snapshots), len(after.Trades))
	}
	if after.Snapshots[0].Price != 100 {
		t.Errorf("snapshot content changed: %+v", after.Snapshots[0])
	}
}

// go test -v --run TestFreshTradeFilter
func TestFreshTradeFilter(t *testing.T) {
	s := New(10 * time.Minute)

	first := []Trade{
		tradeAt("BTCUSDT", 100, base.Add(-30*time.Second)),
		tradeAt("BTCUSDT", 200, base.Add(-time.Second)),
	}
	fresh, err := s.Update("BTCUSDT", snapAt("BTCUSDT", 100, 1000, base), first)
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh) != 2 {
		t.Fatalf("first cycle should keep all trades, got %d", len(fresh))
	}

	// Second cycle repeats an old trade and adds a new one; only the new
	// one counts
	next := base.Add(5 * time.Second)
	second := []Trade{
		tradeAt("BTCUSDT", 200, base.Add(-time.Second)), // already seen
		tradeAt("BTCUSDT", 300, base.Add(2*time.Second)),
	}
	fresh, err = s.Update("BTCUSDT", snapAt("BTCUSDT", 101, 1100, next), second)
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh) != 1 || fresh[0].Notional != 300 {
		t.Fatalf("expected only the new trade, got %+v", fresh)
	}

	w := s.WindowFor("BTCUSDT")
	if len(w.Trades) != 3 {
		t.Errorf("window should hold 3 distinct trades, got %d", len(w.Trades))
	}
}

// go test -v --run TestWindowForUnknownSymbol
func TestWindowForUnknownSymbol(t *testing.T) {
	s := New(time.Minute)
	w := s.WindowFor("NOPEUSDT")
	if len(w.Snapshots) != 0 || len(w.Trades) != 0 {
		t.Errorf("expected empty window, got %+v", w)
	}
}

// go test -v --run TestWindowForReturnsCopy
func TestWindowForReturnsCopy(t *testing.T) {
	s := New(time.Minute)
	if _, err := s.Update("BTCUSDT", snapAt("BTCUSDT", 100, 1000, base), nil); err != nil {
		t.Fatal(err)
	}

	w := s.WindowFor("BTCUSDT")
	w.Snapshots[0].Price = -1

	if got := s.WindowFor("BTCUSDT").Snapshots[0].Price; got != 100 {
		t.Errorf("mutating a window copy leaked into the store: price %v", got)
	}
}
