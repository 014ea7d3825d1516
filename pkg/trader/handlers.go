package trader

import (
	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/models"
	"github.com/sirupsen/logrus"
)

// Handlers is the agent's side of the exchange callback surface. The
// session has already applied each event to its own bookkeeping before
// calling in, so these are observability only: log and return.
type Handlers struct {
	logger *logrus.Logger
}

func NewHandlers(logger *logrus.Logger) *Handlers {
	return &Handlers{logger: logger}
}

func (h *Handlers) OnCancelResponse(orderID string, success bool, remainingQty int, isMarket bool) {
	kind := "Limit"
	if isMarket {
		kind = "Market"
	}
	h.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"success":  success,
		"unfilled": remainingQty,
	}).Infof("%s order cancelled", kind)
}

func (h *Handlers) OnOrderFill(orderID string, qty, price int) {
	h.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"qty":      qty,
		"price":    price,
	}).Info("Order fill")
}

func (h *Handlers) OnOrderRejected(orderID string, reason string) {
	h.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"reason":   reason,
	}).Warn("Order rejected")
}

func (h *Handlers) OnTrade(symbol string, price, qty int) {
	h.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"price":  price,
		"qty":    qty,
	}).Debug("Trade broadcast")
}

func (h *Handlers) OnBookUpdate(symbol string) {
	h.logger.WithField("symbol", symbol).Debug("Book update")
}

func (h *Handlers) OnSwapResponse(swap string, qty int, success bool) {
	h.logger.WithFields(logrus.Fields{
		"swap":    swap,
		"qty":     qty,
		"success": success,
	}).Info("Swap response")
}

func (h *Handlers) OnNews(news models.NewsEvent) {
	h.logger.WithFields(logrus.Fields{
		"kind":    news.Kind,
		"content": news.Content,
	}).Info("News received")
}
