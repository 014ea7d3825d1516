package models

import "encoding/json"

// NewsKind distinguishes the flavors of broadcast the exchange sends.
type NewsKind string

const (
	NewsKindExchangeAlert NewsKind = "Exchange Alert"
	NewsKindNews          NewsKind = "News"
	NewsKindTweet         NewsKind = "Tweet"
)

// NewsEvent is a broadcast delivered by the exchange. The agent only
// logs these; no trading logic depends on them.
type NewsEvent struct {
	Kind    NewsKind
	Content string
	Raw     json.RawMessage
}
