package xchange

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/models"
)

// Frame types carried over the exchange websocket.
const (
	FrameLogin          = "login"
	FrameLoginResponse  = "login_response"
	FrameNewOrder       = "new_order"
	FrameCancelOrder    = "cancel_order"
	FrameSwap           = "swap"
	FrameBook           = "book"
	FramePositions      = "positions"
	FrameFill           = "fill"
	FrameCancelResponse = "cancel_response"
	FrameReject         = "reject"
	FrameTrade          = "trade"
	FrameSwapResponse   = "swap_response"
	FrameNews           = "news"
)

// Envelope is the outer shape of every inbound frame; Data holds the
// type-specific payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type LoginMessage struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
}

type NewOrderMessage struct {
	Type     string `json:"type"`
	OrderID  string `json:"order_id"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Qty      int    `json:"qty"`
	Price    int    `json:"price,omitempty"`
	IsMarket bool   `json:"is_market"`
}

type CancelOrderMessage struct {
	Type    string `json:"type"`
	OrderID string `json:"order_id"`
}

type SwapMessage struct {
	Type      string `json:"type"`
	Direction string `json:"direction"`
	Qty       int    `json:"qty"`
}

type BookData struct {
	Symbol string         `json:"symbol"`
	Bids   map[string]int `json:"bids"`
	Asks   map[string]int `json:"asks"`
}

type PositionsData struct {
	Positions map[string]int `json:"positions"`
}

type FillData struct {
	OrderID string `json:"order_id"`
	Symbol  string `json:"symbol"`
	Qty     int    `json:"qty"`
	Price   int    `json:"price"`
}

type CancelResponseData struct {
	OrderID string `json:"order_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type RejectData struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

type TradeData struct {
	Symbol string `json:"symbol"`
	Price  int    `json:"price"`
	Qty    int    `json:"qty"`
}

type SwapResponseData struct {
	Swap    string `json:"swap"`
	Qty     int    `json:"qty"`
	Success bool   `json:"success"`
}

type NewsData struct {
	Kind    string          `json:"kind"`
	NewData json.RawMessage `json:"new_data"`
}

type newsPayload struct {
	Content string `json:"content"`
}

// parseSide converts the exchange's price-keyed JSON object (keys are
// decimal strings) into an integer-keyed level map.
func parseSide(side map[string]int) (map[int]int, error) {
	out := make(map[int]int, len(side))
	for k, qty := range side {
		price, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("bad price level %q: %w", k, err)
		}
		out[price] = qty
	}
	return out, nil
}

func parseNews(d NewsData) models.NewsEvent {
	var payload newsPayload
	// Content is best-effort; an unparseable payload still surfaces raw.
	_ = json.Unmarshal(d.NewData, &payload)
	return models.NewsEvent{
		Kind:    models.NewsKind(d.Kind),
		Content: payload.Content,
		Raw:     d.NewData,
	}
}
