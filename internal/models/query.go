package models

import "encoding/json"

// SessionState is the opaque dialog context blob round-tripped between the
// caller and the classifier. The core never inspects its internals except
// through the classifier's documented session-attribute cache.
type SessionState = json.RawMessage

// QueryRequest is one conversational turn. Immutable per call.
type QueryRequest struct {
	Text         string
	SessionID    string
	SessionState SessionState // nil on first turn
	Language     string       // ISO code, empty for auto-detect
}

// QueryResponse is either a QuerySuccess or a QueryFailure. A failure is a
// normal, valid outcome the caller renders to the user, not an exception.
type QueryResponse interface {
	queryResponse()
}

type QuerySuccess struct {
	Text         string
	SessionID    string
	SessionState SessionState
	Language     string
}

type QueryFailure struct {
	Error        string // already in the caller's language when possible
	SessionID    string
	SessionState SessionState // preserved so the conversation can continue
}

func (QuerySuccess) queryResponse() {}
func (QueryFailure) queryResponse() {}
