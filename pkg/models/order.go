package models

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderRequest describes one order to submit. Price is ignored for
// market orders.
type OrderRequest struct {
	Symbol string
	Side   Side
	Type   OrderType
	Price  int
	Qty    int
}

// SwapDirection names an instrument-conversion action, distinct from a
// regular buy or sell.
type SwapDirection string

const (
	SwapToAKAV   SwapDirection = "toAKAV"
	SwapFromAKAV SwapDirection = "fromAKAV"
)
