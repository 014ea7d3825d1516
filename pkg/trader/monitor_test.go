package trader

import (
	"context"
	"testing"
	"time"

	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/models"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestMonitor_RendersBooks(t *testing.T) {
	session := &fakeSession{
		bookFn: staticBook(map[int]int{100: 5, 99: 2}, map[int]int{102: 5, 103: 1}),
	}
	logger, hook := test.NewNullLogger()
	monitor := NewMonitor(session, time.Millisecond, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	monitor.Run(ctx)

	var rendered bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Book snapshot" {
			rendered = true
			if entry.Data["symbol"] != "APT" {
				t.Errorf("rendered symbol %v, want APT", entry.Data["symbol"])
			}
		}
	}
	if !rendered {
		t.Error("expected at least one book snapshot log line")
	}
}

func TestMonitor_SurvivesPanic(t *testing.T) {
	session := &fakeSession{
		bookFn: func(call int) (models.OrderBook, bool) {
			if call == 0 {
				panic("bad snapshot")
			}
			return models.OrderBook{Symbol: "APT", Bids: map[int]int{100: 1}, Asks: map[int]int{101: 1}}, true
		},
	}
	logger, hook := test.NewNullLogger()
	monitor := NewMonitor(session, time.Millisecond, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	monitor.Run(ctx)

	var failed, rendered bool
	for _, entry := range hook.AllEntries() {
		switch entry.Message {
		case "Book rendering failed":
			failed = true
		case "Book snapshot":
			rendered = true
		}
	}
	if !failed {
		t.Error("expected the panic to be logged")
	}
	if !rendered {
		t.Error("expected the loop to keep rendering after the panic")
	}
}
