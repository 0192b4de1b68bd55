package proxy

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/buger/jsonparser"

	"github.com/mcplens/inspector/internal/resource"
)

// sendFailureCode is returned to the client when forwarding a request to
// the server transport fails (spec.md §4.5, §8.4 scenario S6).
const sendFailureCode = -32001

// pendingCall is what the correlation table remembers about an in-flight
// client→server request: requestId → {method, toolName?} (spec.md §4.5).
type pendingCall struct {
	method   string
	toolName string
}

// rpcError mirrors the JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Interceptor bridges a client transport and a server transport, pumping
// JSON-RPC messages in both directions. It is the correlating layer between
// a proxied MCP session and the Resource Indexer: every tools/call result
// that flows back from the server is submitted for identifier extraction
// under the currently active profile (spec.md §4.5).
type Interceptor struct {
	mu      sync.Mutex
	pending map[string]pendingCall

	clientClosed bool
	serverClosed bool

	client Transport
	server Transport

	indexer      *resource.Indexer
	activeUserID func() string
}

// New wires an Interceptor between client and server and registers its
// callbacks on both transports. activeUserID resolves the user id to
// attribute newly discovered identifiers to; it may be nil, in which case
// entries are attributed to resource.AnonymousUser.
func New(client, server Transport, indexer *resource.Indexer, activeUserID func() string) *Interceptor {
	ic := &Interceptor{
		pending:      make(map[string]pendingCall),
		client:       client,
		server:       server,
		indexer:      indexer,
		activeUserID: activeUserID,
	}

	client.OnMessage(ic.handleClientMessage)
	client.OnClose(ic.handleClientClose)
	client.OnError(func(err error) { log.Printf("[Proxy] client transport error: %v", err) })

	server.OnMessage(ic.handleServerMessage)
	server.OnClose(ic.handleServerClose)
	server.OnError(func(err error) { log.Printf("[Proxy] server transport error: %v", err) })

	return ic
}

// handleClientMessage forwards a client→server message, recording a
// correlation-table entry first if it is a tools/call (or any other)
// request (spec.md §4.5).
func (ic *Interceptor) handleClientMessage(msg json.RawMessage) {
	method, id, isRequest := requestEnvelope(msg)

	if isRequest {
		toolName := ""
		if method == "tools/call" {
			toolName, _ = jsonparser.GetString(msg, "params", "name")
		}
		ic.mu.Lock()
		ic.pending[string(id)] = pendingCall{method: method, toolName: toolName}
		ic.mu.Unlock()
	}

	if err := ic.server.Send(msg); err != nil {
		if isRequest {
			ic.mu.Lock()
			delete(ic.pending, string(id))
			ic.mu.Unlock()
			ic.sendErrorToClient(id, err)
		} else {
			log.Printf("[Proxy] forward notification to server: %v", err)
		}
	}
}

// handleServerMessage forwards a server→client message. If it is a response
// whose id is in the correlation table, the entry is consumed and, for a
// tools/call response, the result is submitted to the Resource Indexer
// (spec.md §4.5).
func (ic *Interceptor) handleServerMessage(msg json.RawMessage) {
	id, isResponse := responseID(msg)
	if isResponse {
		key := string(id)
		ic.mu.Lock()
		call, found := ic.pending[key]
		if found {
			delete(ic.pending, key)
		}
		ic.mu.Unlock()

		if found && call.method == "tools/call" {
			if resultRaw, _, _, err := jsonparser.Get(msg, "result"); err == nil {
				ic.indexResult(call.toolName, resultRaw)
			}
		}
	}

	if err := ic.client.Send(msg); err != nil {
		log.Printf("[Proxy] forward response to client: %v", err)
	}
}

func (ic *Interceptor) indexResult(toolName string, resultRaw []byte) {
	var result any
	if err := json.Unmarshal(resultRaw, &result); err != nil {
		return
	}
	userID := ""
	if ic.activeUserID != nil {
		userID = ic.activeUserID()
	}
	if _, err := ic.indexer.IndexResponse(userID, toolName, result); err != nil {
		log.Printf("[Proxy] index result for %q: %v", toolName, err)
	}
}

// sendErrorToClient synthesizes a JSON-RPC error response for a request
// that could not be forwarded to the server, provided the client
// connection is still open (spec.md §4.5, §8.4 scenario S6).
func (ic *Interceptor) sendErrorToClient(id json.RawMessage, sendErr error) {
	ic.mu.Lock()
	closed := ic.clientClosed
	ic.mu.Unlock()
	if closed {
		return
	}

	resp := struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Error   rpcError        `json:"error"`
	}{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcError{Code: sendFailureCode, Message: sendErr.Error(), Data: sendErr.Error()},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[Proxy] marshal synthesized error response: %v", err)
		return
	}
	if err := ic.client.Send(data); err != nil {
		log.Printf("[Proxy] send synthesized error response: %v", err)
	}
}

// handleClientClose propagates a client-side close to the server, unless
// the server is already closed, and clears the correlation table (spec.md
// §4.5 "half-close propagation").
func (ic *Interceptor) handleClientClose() {
	ic.mu.Lock()
	ic.clientClosed = true
	alreadyClosed := ic.serverClosed
	ic.pending = make(map[string]pendingCall)
	ic.mu.Unlock()

	if !alreadyClosed {
		_ = ic.server.Close()
	}
}

// handleServerClose is the mirror image of handleClientClose.
func (ic *Interceptor) handleServerClose() {
	ic.mu.Lock()
	ic.serverClosed = true
	alreadyClosed := ic.clientClosed
	ic.pending = make(map[string]pendingCall)
	ic.mu.Unlock()

	if !alreadyClosed {
		_ = ic.client.Close()
	}
}

// requestEnvelope reports whether msg is a JSON-RPC request (as opposed to
// a notification or response): it has a "method" field and an "id" field.
func requestEnvelope(msg json.RawMessage) (method string, id json.RawMessage, isRequest bool) {
	m, err := jsonparser.GetString(msg, "method")
	if err != nil {
		return "", nil, false
	}
	idRaw, _, _, idErr := jsonparser.Get(msg, "id")
	if idErr != nil {
		return m, nil, false
	}
	return m, json.RawMessage(idRaw), true
}

// responseID reports whether msg is a JSON-RPC response: it has an "id"
// field, a "result" or "error" field, and no "method" field.
func responseID(msg json.RawMessage) (id json.RawMessage, isResponse bool) {
	if _, err := jsonparser.GetString(msg, "method"); err == nil {
		return nil, false
	}
	idRaw, _, _, idErr := jsonparser.Get(msg, "id")
	if idErr != nil {
		return nil, false
	}
	_, resultErr := jsonparser.Get(msg, "result")
	_, errErr := jsonparser.Get(msg, "error")
	if resultErr != nil && errErr != nil {
		return nil, false
	}
	return json.RawMessage(idRaw), true
}
