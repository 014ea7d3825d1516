package trader

import (
	"context"
	"fmt"

	"github.com/Ohimoiza1205/uchicago-quant-trading/internal/config"
	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/models"
	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/xchange"
	"github.com/sirupsen/logrus"
)

// Engine runs the multi-strategy trade cycle against one symbol. Each
// cycle applies five rules in order; the risk gate may suppress the
// rest, and each later rule decides independently from fresh snapshots.
// Decision helpers are pure so they can be tested without a session.
type Engine struct {
	session xchange.Session
	cfg     config.TradingConfig
	logger  *logrus.Logger
}

func NewEngine(session xchange.Session, cfg config.TradingConfig, logger *logrus.Logger) *Engine {
	return &Engine{
		session: session,
		cfg:     cfg,
		logger:  logger,
	}
}

// cycleContext holds the per-cycle state captured at cycle start. It is
// discarded when RunCycle returns.
type cycleContext struct {
	bestBid        int
	bestAsk        int
	coverThreshold int
}

// RunCycle executes one pass of the trading sequence. A not-ready book
// or a tripped risk gate ends the cycle without error; a submission
// failure aborts the remainder and is returned for the caller to log.
func (e *Engine) RunCycle(ctx context.Context) error {
	symbol := e.cfg.Symbol

	book, ok := e.session.OrderBook(symbol)
	if !ok || !book.Ready() {
		e.logger.WithField("symbol", symbol).Debug("Book not ready, skipping cycle")
		return nil
	}

	bestBid, _ := book.BestBid()
	bestAsk, _ := book.BestAsk()
	cycle := cycleContext{
		bestBid:        bestBid,
		bestAsk:        bestAsk,
		coverThreshold: bestBid + e.cfg.CoverMargin,
	}

	e.logger.WithFields(logrus.Fields{
		"symbol":   symbol,
		"best_bid": bestBid,
		"best_ask": bestAsk,
	}).Info("Starting trade cycle")

	// Rule 1: risk gate
	if blocked, reason := e.riskGate(e.session.Positions()); blocked {
		e.logger.WithField("reason", reason).Info("Risk gate tripped, skipping cycle")
		return nil
	}

	// Rule 2: two-sided quoting plus the swap pair
	if err := e.quote(ctx, cycle); err != nil {
		return err
	}

	// Rule 3: momentum
	if err := e.momentum(ctx, cycle); err != nil {
		return err
	}
	if err := sleepCtx(ctx, e.cfg.MomentumSettle); err != nil {
		return err
	}

	// Rule 4: short-cover wait
	if err := e.awaitCover(ctx, cycle); err != nil {
		return err
	}

	// Rule 5: position rebalance
	if err := e.rebalance(ctx); err != nil {
		return err
	}

	e.logger.Info("Finished trade cycle")
	return nil
}

// riskGate reports whether trading must stop for this cycle. Low cash
// or an oversized position are hard stops, not throttles.
func (e *Engine) riskGate(pos models.Positions) (blocked bool, reason string) {
	if pos.Cash() < e.cfg.MinCash {
		return true, fmt.Sprintf("cash %d below minimum %d", pos.Cash(), e.cfg.MinCash)
	}
	if abs(pos.Of(e.cfg.Symbol)) > e.cfg.MaxPosition {
		return true, fmt.Sprintf("position %d exceeds limit %d", pos.Of(e.cfg.Symbol), e.cfg.MaxPosition)
	}
	return false, ""
}

// quotePlan returns the two resting quotes for this cycle: a buy one
// tick above the best bid and a sell one tick below the best ask.
func quotePlan(cfg config.TradingConfig, cycle cycleContext) []models.OrderRequest {
	return []models.OrderRequest{
		{
			Symbol: cfg.Symbol,
			Side:   models.SideBuy,
			Type:   models.OrderTypeLimit,
			Price:  cycle.bestBid + 1,
			Qty:    cfg.QuoteQty,
		},
		{
			Symbol: cfg.Symbol,
			Side:   models.SideSell,
			Type:   models.OrderTypeLimit,
			Price:  cycle.bestAsk - 1,
			Qty:    cfg.QuoteQty,
		},
	}
}

func (e *Engine) quote(ctx context.Context, cycle cycleContext) error {
	for _, req := range quotePlan(e.cfg, cycle) {
		if err := e.place(ctx, req, "quoting"); err != nil {
			return err
		}
		if err := sleepCtx(ctx, e.cfg.PacingDelay); err != nil {
			return err
		}
	}

	for _, direction := range []models.SwapDirection{models.SwapToAKAV, models.SwapFromAKAV} {
		e.logger.WithField("direction", direction).Info("Submitting swap")
		if err := e.session.PlaceSwap(ctx, direction, e.cfg.SwapQty); err != nil {
			return fmt.Errorf("swap %s failed: %w", direction, err)
		}
		if err := sleepCtx(ctx, e.cfg.PacingDelay); err != nil {
			return err
		}
	}
	return nil
}

// momentumOrder evaluates bestBid − bestAsk against the threshold and
// returns the market order to send, or nil. The sign convention follows
// the live deployment exactly: a reading above +2 buys, below −2 sells,
// and the boundaries fire nothing.
func momentumOrder(cfg config.TradingConfig, cycle cycleContext) *models.OrderRequest {
	momentum := cycle.bestBid - cycle.bestAsk
	switch {
	case momentum > cfg.MomentumThreshold:
		return &models.OrderRequest{
			Symbol: cfg.Symbol,
			Side:   models.SideBuy,
			Type:   models.OrderTypeMarket,
			Qty:    cfg.MomentumQty,
		}
	case momentum < -cfg.MomentumThreshold:
		return &models.OrderRequest{
			Symbol: cfg.Symbol,
			Side:   models.SideSell,
			Type:   models.OrderTypeMarket,
			Qty:    cfg.MomentumQty,
		}
	default:
		return nil
	}
}

func (e *Engine) momentum(ctx context.Context, cycle cycleContext) error {
	req := momentumOrder(e.cfg, cycle)
	if req == nil {
		return nil
	}
	label := "Downtrend detected, selling"
	if req.Side == models.SideBuy {
		label = "Uptrend detected, buying"
	}
	e.logger.WithField("momentum", cycle.bestBid-cycle.bestAsk).Info(label)
	return e.place(ctx, *req, "momentum")
}

// awaitCover polls while the symbol position is short, buying back the
// whole short once the refreshed best ask clears the threshold captured
// at cycle start. There is deliberately no iteration cap: the loop ends
// only on the threshold, on the short being gone, on disconnect, or on
// context cancellation.
func (e *Engine) awaitCover(ctx context.Context, cycle cycleContext) error {
	for {
		short := e.session.Positions().Of(e.cfg.Symbol)
		if short >= 0 {
			return nil
		}

		if err := sleepCtx(ctx, e.cfg.CoverPollInterval); err != nil {
			return err
		}
		if !e.session.Connected() {
			return fmt.Errorf("session disconnected while awaiting cover")
		}

		book, ok := e.session.OrderBook(e.cfg.Symbol)
		if !ok {
			continue
		}
		currentAsk, ok := book.BestAsk()
		if !ok {
			continue
		}

		if currentAsk > cycle.coverThreshold {
			e.logger.WithField("ask", currentAsk).Info("Covering short")
			// Re-read the position at the moment of covering.
			short = e.session.Positions().Of(e.cfg.Symbol)
			if short >= 0 {
				return nil
			}
			return e.place(ctx, models.OrderRequest{
				Symbol: e.cfg.Symbol,
				Side:   models.SideBuy,
				Type:   models.OrderTypeMarket,
				Qty:    -short,
			}, "short cover")
		}
	}
}

// rebalanceOrder trims a position outside the configured band back
// toward flat by a fixed clip.
func rebalanceOrder(cfg config.TradingConfig, position int) *models.OrderRequest {
	switch {
	case position > cfg.RebalanceThreshold:
		return &models.OrderRequest{
			Symbol: cfg.Symbol,
			Side:   models.SideSell,
			Type:   models.OrderTypeMarket,
			Qty:    cfg.RebalanceQty,
		}
	case position < -cfg.RebalanceThreshold:
		return &models.OrderRequest{
			Symbol: cfg.Symbol,
			Side:   models.SideBuy,
			Type:   models.OrderTypeMarket,
			Qty:    cfg.RebalanceQty,
		}
	default:
		return nil
	}
}

func (e *Engine) rebalance(ctx context.Context) error {
	position := e.session.Positions().Of(e.cfg.Symbol)
	req := rebalanceOrder(e.cfg, position)
	if req == nil {
		return nil
	}
	e.logger.WithField("position", position).Info("Rebalancing position")
	return e.place(ctx, *req, "rebalance")
}

func (e *Engine) place(ctx context.Context, req models.OrderRequest, rule string) error {
	orderID, err := e.session.PlaceOrder(ctx, &req)
	if err != nil {
		return fmt.Errorf("%s order failed: %w", rule, err)
	}
	e.logger.WithFields(logrus.Fields{
		"rule":     rule,
		"order_id": orderID,
		"side":     req.Side,
		"type":     req.Type,
		"price":    req.Price,
		"qty":      req.Qty,
	}).Info("Order submitted")
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
