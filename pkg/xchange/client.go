package xchange

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/models"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Session is the exchange-session surface consumed by the trading core.
// Snapshot accessors return copies; the caller never shares state with
// the session's read loop.
type Session interface {
	Connect(ctx context.Context) error
	Connected() bool
	OrderBook(symbol string) (models.OrderBook, bool)
	Books() map[string]models.OrderBook
	Positions() models.Positions
	OpenOrders() map[string]models.OpenOrder
	PlaceOrder(ctx context.Context, req *models.OrderRequest) (string, error)
	PlaceSwap(ctx context.Context, direction models.SwapDirection, qty int) error
	CancelOrder(ctx context.Context, orderID string) error
}

// Handler receives exchange events after the session has applied them
// to its own state. All methods are invoked from the session read loop.
type Handler interface {
	OnCancelResponse(orderID string, success bool, remainingQty int, isMarket bool)
	OnOrderFill(orderID string, qty, price int)
	OnOrderRejected(orderID string, reason string)
	OnTrade(symbol string, price, qty int)
	OnBookUpdate(symbol string)
	OnSwapResponse(swap string, qty int, success bool)
	OnNews(news models.NewsEvent)
}

// Client maintains one websocket session to the exchange. The read loop
// is the writer of book and position state; everything else reads
// snapshots. Submissions go through a rate limiter so bursty strategy
// code cannot flood the wire.
type Client struct {
	url      string
	username string
	auth     Authenticator
	logger   *logrus.Logger
	limiter  *rate.Limiter
	handler  Handler

	writeMu   sync.Mutex
	conn      *websocket.Conn
	connected bool

	stateMu    sync.RWMutex
	books      map[string]models.OrderBook
	positions  models.Positions
	openOrders map[string]models.OpenOrder
	orderSeq   int

	uiMu sync.Mutex
	uiCh chan Envelope
}

const uiQueueDepth = 256

func NewClient(url, username string, auth Authenticator, logger *logrus.Logger) *Client {
	return &Client{
		url:      url,
		username: username,
		auth:     auth,
		logger:   logger,
		// 10 submissions/second with a small burst, matching the
		// exchange's per-session limit.
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
		books:      make(map[string]models.OrderBook),
		positions:  make(models.Positions),
		openOrders: make(map[string]models.OpenOrder),
	}
}

// SetHandler registers the event handler. Must be called before Connect.
func (c *Client) SetHandler(h Handler) {
	c.handler = h
}

// Connect dials the exchange, authenticates, and runs the session until
// it fails or ctx is cancelled. It returns the terminal error, so the
// caller's retry loop owns reconnection policy.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to exchange: %w", err)
	}

	login, err := c.auth.LoginMessage(c.username)
	if err != nil {
		conn.Close()
		return err
	}
	if err := conn.WriteJSON(login); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send login: %w", err)
	}

	c.writeMu.Lock()
	c.conn = conn
	c.connected = true
	c.writeMu.Unlock()

	c.logger.WithField("user", c.username).Info("Exchange session established")

	// Close the socket on cancellation so a blocked read unwinds.
	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stopped:
		}
	}()

	err = c.readLoop(ctx, conn)
	close(stopped)
	c.markDisconnected()
	return err
}

// Connected reports whether the session is currently live.
func (c *Client) Connected() bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.connected
}

func (c *Client) markDisconnected() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.connected = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return fmt.Errorf("session read failed: %w", err)
		}

		c.enqueueUI(env)

		if err := c.dispatch(env); err != nil {
			c.logger.WithError(err).WithField("frame", env.Type).Error("Failed to handle frame")
		}
	}
}

func (c *Client) dispatch(env Envelope) error {
	switch env.Type {
	case FrameLoginResponse:
		return nil

	case FrameBook:
		var d BookData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		bids, err := parseSide(d.Bids)
		if err != nil {
			return err
		}
		asks, err := parseSide(d.Asks)
		if err != nil {
			return err
		}
		c.stateMu.Lock()
		c.books[d.Symbol] = models.OrderBook{
			Symbol:    d.Symbol,
			Bids:      bids,
			Asks:      asks,
			Timestamp: time.Now(),
		}
		c.stateMu.Unlock()
		if c.handler != nil {
			c.handler.OnBookUpdate(d.Symbol)
		}
		return nil

	case FramePositions:
		var d PositionsData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		c.stateMu.Lock()
		c.positions = models.Positions(d.Positions).Clone()
		c.stateMu.Unlock()
		return nil

	case FrameFill:
		var d FillData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		c.applyFill(d)
		if c.handler != nil {
			c.handler.OnOrderFill(d.OrderID, d.Qty, d.Price)
		}
		return nil

	case FrameCancelResponse:
		var d CancelResponseData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		remaining, isMarket := c.removeOrder(d.OrderID)
		if c.handler != nil {
			c.handler.OnCancelResponse(d.OrderID, d.Success, remaining, isMarket)
		}
		return nil

	case FrameReject:
		var d RejectData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		c.removeOrder(d.OrderID)
		if c.handler != nil {
			c.handler.OnOrderRejected(d.OrderID, d.Reason)
		}
		return nil

	case FrameTrade:
		var d TradeData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		if c.handler != nil {
			c.handler.OnTrade(d.Symbol, d.Price, d.Qty)
		}
		return nil

	case FrameSwapResponse:
		var d SwapResponseData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		if c.handler != nil {
			c.handler.OnSwapResponse(d.Swap, d.Qty, d.Success)
		}
		return nil

	case FrameNews:
		var d NewsData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		if c.handler != nil {
			c.handler.OnNews(parseNews(d))
		}
		return nil

	default:
		c.logger.WithField("frame", env.Type).Debug("Ignoring unknown frame")
		return nil
	}
}

// applyFill keeps the local open-order table and positions consistent
// with the fill the exchange reports. Position frames from the server
// remain authoritative and overwrite this bookkeeping when they arrive.
func (c *Client) applyFill(d FillData) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	order, ok := c.openOrders[d.OrderID]
	if !ok {
		return
	}

	order.RemainingQty -= d.Qty
	if order.RemainingQty <= 0 {
		delete(c.openOrders, d.OrderID)
	} else {
		c.openOrders[d.OrderID] = order
	}

	signed := d.Qty
	if order.Side == models.SideSell {
		signed = -d.Qty
	}
	c.positions[order.Symbol] += signed
	c.positions[models.CashSymbol] -= signed * d.Price
}

func (c *Client) removeOrder(orderID string) (remainingQty int, isMarket bool) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	order, ok := c.openOrders[orderID]
	if !ok {
		return 0, false
	}
	delete(c.openOrders, orderID)
	return order.RemainingQty, order.IsMarket
}

// OrderBook returns a snapshot of one symbol's book. ok is false when
// the exchange has not sent a book for the symbol.
func (c *Client) OrderBook(symbol string) (models.OrderBook, bool) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	book, ok := c.books[symbol]
	if !ok {
		return models.OrderBook{}, false
	}
	return book.Clone(), true
}

// Books returns snapshots of every known book.
func (c *Client) Books() map[string]models.OrderBook {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	out := make(map[string]models.OrderBook, len(c.books))
	for sym, book := range c.books {
		out[sym] = book.Clone()
	}
	return out
}

// Positions returns a snapshot of current positions.
func (c *Client) Positions() models.Positions {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.positions.Clone()
}

// OpenOrders returns a snapshot of the open-order table.
func (c *Client) OpenOrders() map[string]models.OpenOrder {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	out := make(map[string]models.OpenOrder, len(c.openOrders))
	for id, o := range c.openOrders {
		out[id] = o
	}
	return out
}

// PlaceOrder submits one order and returns its identifier. The order is
// tracked as open until a fill, cancel, or reject removes it.
func (c *Client) PlaceOrder(ctx context.Context, req *models.OrderRequest) (string, error) {
	if !c.Connected() {
		return "", fmt.Errorf("not connected to exchange")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	c.stateMu.Lock()
	c.orderSeq++
	orderID := fmt.Sprintf("%s-%d", c.username, c.orderSeq)
	c.openOrders[orderID] = models.OpenOrder{
		ID:           orderID,
		Symbol:       req.Symbol,
		Side:         req.Side,
		RemainingQty: req.Qty,
		IsMarket:     req.Type == models.OrderTypeMarket,
	}
	c.stateMu.Unlock()

	msg := NewOrderMessage{
		Type:     FrameNewOrder,
		OrderID:  orderID,
		Symbol:   req.Symbol,
		Side:     string(req.Side),
		Qty:      req.Qty,
		IsMarket: req.Type == models.OrderTypeMarket,
	}
	if req.Type == models.OrderTypeLimit {
		msg.Price = req.Price
	}

	if err := c.writeJSON(msg); err != nil {
		c.stateMu.Lock()
		delete(c.openOrders, orderID)
		c.stateMu.Unlock()
		return "", fmt.Errorf("failed to submit order: %w", err)
	}
	return orderID, nil
}

// PlaceSwap submits one instrument-conversion request.
func (c *Client) PlaceSwap(ctx context.Context, direction models.SwapDirection, qty int) error {
	if !c.Connected() {
		return fmt.Errorf("not connected to exchange")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := SwapMessage{
		Type:      FrameSwap,
		Direction: string(direction),
		Qty:       qty,
	}
	if err := c.writeJSON(msg); err != nil {
		return fmt.Errorf("failed to submit swap: %w", err)
	}
	return nil
}

// CancelOrder requests cancellation; the outcome arrives via
// OnCancelResponse.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if !c.Connected() {
		return fmt.Errorf("not connected to exchange")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := CancelOrderMessage{
		Type:    FrameCancelOrder,
		OrderID: orderID,
	}
	if err := c.writeJSON(msg); err != nil {
		return fmt.Errorf("failed to submit cancel: %w", err)
	}
	return nil
}

func (c *Client) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if !c.connected || c.conn == nil {
		return fmt.Errorf("not connected to exchange")
	}
	return c.conn.WriteJSON(v)
}

// EnableUIQueue starts mirroring inbound frames onto a bounded queue for
// the Phoenixhood UI. Frames are dropped when the queue is full.
func (c *Client) EnableUIQueue() <-chan Envelope {
	c.uiMu.Lock()
	defer c.uiMu.Unlock()
	if c.uiCh == nil {
		c.uiCh = make(chan Envelope, uiQueueDepth)
	}
	return c.uiCh
}

func (c *Client) enqueueUI(env Envelope) {
	c.uiMu.Lock()
	ch := c.uiCh
	c.uiMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- env:
	default:
	}
}
