package models

// CashSymbol is the distinguished key for the cash balance in a
// position snapshot.
const CashSymbol = "cash"

// Positions maps symbol (plus CashSymbol) to signed net quantity. It is
// updated only by the exchange session in response to fills; strategy
// code reads copies.
type Positions map[string]int

// Cash returns the cash balance, zero if absent.
func (p Positions) Cash() int {
	return p[CashSymbol]
}

// Of returns the signed position in symbol, zero if absent.
func (p Positions) Of(symbol string) int {
	return p[symbol]
}

// Clone returns a copy safe to hand outside the writer.
func (p Positions) Clone() Positions {
	out := make(Positions, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// OpenOrder is one outstanding order as tracked by the session.
type OpenOrder struct {
	ID           string
	Symbol       string
	Side         Side
	RemainingQty int
	IsMarket     bool
}
