package trader

import (
	"testing"

	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestHandlers_CancelResponseWording(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := NewHandlers(logger)

	h.OnCancelResponse("ord-1", true, 2, false)
	h.OnCancelResponse("ord-2", true, 0, true)

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Message != "Limit order cancelled" {
		t.Errorf("limit cancel logged as %q", entries[0].Message)
	}
	if entries[0].Data["unfilled"] != 2 {
		t.Errorf("unfilled = %v, want 2", entries[0].Data["unfilled"])
	}
	if entries[1].Message != "Market order cancelled" {
		t.Errorf("market cancel logged as %q", entries[1].Message)
	}
}

func TestHandlers_AreObservabilityOnly(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	h := NewHandlers(logger)

	h.OnOrderFill("ord-1", 3, 101)
	h.OnOrderRejected("ord-2", "insufficient funds")
	h.OnTrade("APT", 100, 5)
	h.OnBookUpdate("APT")
	h.OnSwapResponse("toAKAV", 1, true)
	h.OnNews(models.NewsEvent{Kind: models.NewsKindTweet, Content: "earnings soon"})

	if len(hook.AllEntries()) != 6 {
		t.Errorf("expected 6 log entries, got %d", len(hook.AllEntries()))
	}
}

func TestHandlers_NewsContent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := NewHandlers(logger)

	h.OnNews(models.NewsEvent{Kind: models.NewsKindExchangeAlert, Content: "halt"})

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Data["kind"] != models.NewsKindExchangeAlert || entry.Data["content"] != "halt" {
		t.Errorf("news logged as %v", entry.Data)
	}
}
