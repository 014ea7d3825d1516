package models

import (
	"sort"
	"time"
)

// OrderBook is a point-in-time view of one symbol's resting interest,
// keyed by integer price. Prices and quantities are integers end to end
// on this exchange.
type OrderBook struct {
	Symbol    string
	Bids      map[int]int
	Asks      map[int]int
	Timestamp time.Time
}

// Ready reports whether the book has at least one level on both sides.
// A one-sided book must not be traded.
func (b OrderBook) Ready() bool {
	return len(b.Bids) > 0 && len(b.Asks) > 0
}

// BestBid returns the highest bid price. ok is false if the bid side is empty.
func (b OrderBook) BestBid() (price int, ok bool) {
	for p := range b.Bids {
		if !ok || p > price {
			price = p
			ok = true
		}
	}
	return price, ok
}

// BestAsk returns the lowest ask price. ok is false if the ask side is empty.
func (b OrderBook) BestAsk() (price int, ok bool) {
	for p := range b.Asks {
		if !ok || p < price {
			price = p
			ok = true
		}
	}
	return price, ok
}

// BidLevels returns the bid side in descending price order.
func (b OrderBook) BidLevels() []Level {
	return sortedLevels(b.Bids, true)
}

// AskLevels returns the ask side in ascending price order.
func (b OrderBook) AskLevels() []Level {
	return sortedLevels(b.Asks, false)
}

// Clone returns a deep copy so callers can hold a snapshot without
// aliasing the writer's maps.
func (b OrderBook) Clone() OrderBook {
	out := OrderBook{
		Symbol:    b.Symbol,
		Bids:      make(map[int]int, len(b.Bids)),
		Asks:      make(map[int]int, len(b.Asks)),
		Timestamp: b.Timestamp,
	}
	for p, q := range b.Bids {
		out.Bids[p] = q
	}
	for p, q := range b.Asks {
		out.Asks[p] = q
	}
	return out
}

// Level is one price level of a book side.
type Level struct {
	Price int
	Qty   int
}

func sortedLevels(side map[int]int, descending bool) []Level {
	levels := make([]Level, 0, len(side))
	for p, q := range side {
		levels = append(levels, Level{Price: p, Qty: q})
	}
	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price > levels[j].Price
		}
		return levels[i].Price < levels[j].Price
	})
	return levels
}
