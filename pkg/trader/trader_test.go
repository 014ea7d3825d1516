package trader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ohimoiza1205/uchicago-quant-trading/internal/config"
	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/models"
	"github.com/sirupsen/logrus/hooks/test"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Trading = testTradingConfig()
	cfg.Monitor.Interval = time.Millisecond
	cfg.Supervisor.ReconnectDelay = time.Millisecond
	return cfg
}

func TestTrader_StartBlocksInSupervisor(t *testing.T) {
	session := &fakeSession{
		bookFn:      staticBook(map[int]int{100: 5}, map[int]int{102: 5}),
		positionsFn: staticPositions(models.Positions{"cash": 5000, "APT": 0}),
	}
	logger, _ := test.NewNullLogger()
	agent := New(session, testConfig(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- agent.Start(ctx, false) }()

	// Let the cycle and monitor tickers fire a few times.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.connectCalls == 0 {
		t.Error("supervisor never attempted to connect")
	}
	if session.bookCalls == 0 {
		t.Error("strategy and monitor loops never read the book")
	}
	if len(session.actions) == 0 {
		t.Error("trade cycles never submitted anything")
	}
}

// A supervisor outage must not stop the strategy or monitor loops.
func TestTrader_CyclesRunThroughOutage(t *testing.T) {
	connErr := errors.New("connection refused")
	session := &fakeSession{
		// Connect fails every time; strategy keeps running anyway.
		connectErrs: []error{connErr, connErr, connErr, connErr, connErr, connErr, connErr, connErr},
		bookFn:      staticBook(map[int]int{100: 5}, map[int]int{102: 5}),
		positionsFn: staticPositions(models.Positions{"cash": 5000, "APT": 0}),
	}
	logger, _ := test.NewNullLogger()
	agent := New(session, testConfig(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = agent.Start(ctx, false)

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.connectCalls < 2 {
		t.Errorf("expected repeated connect attempts, got %d", session.connectCalls)
	}
	if len(session.actions) == 0 {
		t.Error("trade cycles stopped during the outage")
	}
}
