package trader

import (
	"context"
	"time"

	"github.com/Ohimoiza1205/uchicago-quant-trading/internal/config"
	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/xchange"
	"github.com/sirupsen/logrus"
)

// Trader coordinates the recurring tasks of the agent: the trade-cycle
// loop, the book monitor, an optional Phoenixhood message drain, and
// the connection supervisor. The supervisor runs in the caller's
// goroutine and never returns while the context is live, so Start is
// the process's blocking activity.
type Trader struct {
	session       xchange.Session
	engine        *Engine
	monitor       *Monitor
	supervisor    *Supervisor
	cycleInterval time.Duration
	logger        *logrus.Logger
}

// uiQueuer is satisfied by sessions that can mirror inbound frames for
// a user interface.
type uiQueuer interface {
	EnableUIQueue() <-chan xchange.Envelope
}

func New(session xchange.Session, cfg *config.Config, logger *logrus.Logger) *Trader {
	return &Trader{
		session:       session,
		engine:        NewEngine(session, cfg.Trading, logger),
		monitor:       NewMonitor(session, cfg.Monitor.Interval, logger),
		supervisor:    NewSupervisor(session, cfg.Supervisor.ReconnectDelay, cfg.Supervisor.MaxAttempts, logger),
		cycleInterval: cfg.Trading.CycleInterval,
		logger:        logger,
	}
}

// Start launches the concurrent units and then blocks in the
// supervisor. Strategy and monitor tasks outlive connection outages;
// their submissions simply fail at the session boundary until the
// supervisor restores connectivity.
func (t *Trader) Start(ctx context.Context, enableUI bool) error {
	t.logger.Info("Starting trading agent")

	go t.runCycles(ctx)
	go t.monitor.Run(ctx)

	if enableUI {
		if q, ok := t.session.(uiQueuer); ok {
			t.logger.Info("Phoenixhood message drain enabled")
			go t.drainUI(ctx, q.EnableUIQueue())
		} else {
			t.logger.Warn("Session does not support a UI queue, skipping drain")
		}
	}

	return t.supervisor.Run(ctx)
}

func (t *Trader) runCycles(ctx context.Context) {
	ticker := time.NewTicker(t.cycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.engine.RunCycle(ctx); err != nil {
				t.logger.WithError(err).Error("Trade cycle aborted")
			}
		}
	}
}

// drainUI consumes frames mirrored for the Phoenixhood UI so the
// bounded queue never backs up the read loop.
func (t *Trader) drainUI(ctx context.Context, frames <-chan xchange.Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-frames:
			t.logger.WithField("frame", env.Type).Debug("UI message")
		}
	}
}
