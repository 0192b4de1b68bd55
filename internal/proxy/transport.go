// Package proxy implements the Proxy Interceptor (spec.md §4.5): a
// full-duplex bridge between a downstream-tool-server transport and a
// client transport that correlates tools/call requests with their
// responses so results can be mined by the Resource Indexer, and that
// synthesizes error responses when forwarding fails.
package proxy

import "encoding/json"

// Transport is one side of the bidirectional pump the Interceptor bridges.
// Implementations own their own wire framing (stdio, SSE, WebSocket, ...);
// that framing is out of scope here (spec.md §1) — the Interceptor only
// deals in already-framed JSON-RPC messages.
//
// OnMessage, OnClose, and OnError register the Interceptor's callbacks;
// implementations call them at most once each per event as messages arrive,
// the connection closes, or a transport-level error occurs.
type Transport interface {
	Send(msg json.RawMessage) error
	Close() error
	OnMessage(func(msg json.RawMessage))
	OnClose(func())
	OnError(func(err error))
}
