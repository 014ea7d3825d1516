package trader

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/xchange"
	"github.com/sirupsen/logrus"
)

// Monitor periodically renders every known book for observability. It
// is strictly read-only; a failure while rendering one snapshot is
// logged and the loop keeps going.
type Monitor struct {
	session  xchange.Session
	interval time.Duration
	logger   *logrus.Logger
}

func NewMonitor(session xchange.Session, interval time.Duration, logger *logrus.Logger) *Monitor {
	return &Monitor{
		session:  session,
		interval: interval,
		logger:   logger,
	}
}

func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.render()
		}
	}
}

func (m *Monitor) render() {
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithField("panic", r).Error("Book rendering failed")
		}
	}()

	books := m.session.Books()

	symbols := make([]string, 0, len(books))
	for sym := range books {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		book := books[sym]
		m.logger.WithFields(logrus.Fields{
			"symbol": sym,
			"bids":   fmt.Sprint(book.BidLevels()),
			"asks":   fmt.Sprint(book.AskLevels()),
		}).Info("Book snapshot")
	}
}
