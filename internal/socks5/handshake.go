package socks5

import "golang.org/x/crypto/cryptobyte"

// State is the progress of a server-side handshake. It is one of [Init],
// [AwaitingRequest] or [Completed], and only ever moves forward in that
// order.
type State interface {
	handshakeState()
}

// Init is the state before any input has been consumed.
type Init struct{}

// AwaitingRequest follows method negotiation. The method selection has
// already been produced for the client.
type AwaitingRequest struct {
	Version Version
	Methods []AuthMethod
}

// Selected returns the method that was chosen from Methods.
func (s AwaitingRequest) Selected() AuthMethod {
	return SelectMethod(s.Methods)
}

// Completed holds the parsed CONNECT request. It is terminal.
type Completed struct {
	Request Request
}

func (Init) handshakeState()            {}
func (AwaitingRequest) handshakeState() {}
func (Completed) handshakeState()       {}

// Advance consumes chunk in the given state and returns the next state along
// with the bytes that must be sent to the client before continuing (possibly
// none).
//
// On error the state does not change. ErrIncomplete means chunk does not yet
// hold a whole message; Advance keeps nothing between calls, so the caller
// must retry with the same bytes plus whatever arrives next. [Handshake] does
// this bookkeeping.
//
// Advance in the Completed state always returns Completed and no bytes, and
// does not look at chunk.
func Advance(state State, chunk []byte) (State, []byte, error) {
	next, reply, _, err := advance(state, chunk)
	return next, reply, err
}

func advance(state State, chunk []byte) (State, []byte, int, error) {
	s := cryptobyte.String(chunk)

	switch st := state.(type) {
	case Completed:
		return st, nil, 0, nil

	case AwaitingRequest:
		req, err := readRequest(&s)
		if err != nil {
			return state, nil, 0, err
		}
		if req.Version != st.Version {
			return state, nil, 0, unsupported(ErrUnsupportedVersion, byte(req.Version))
		}
		return Completed{Request: req}, nil, len(chunk) - len(s), nil

	case Init, nil:
		mreq, err := readMethodRequest(&s)
		if err != nil {
			return state, nil, 0, err
		}
		reply := MethodReply{Version: mreq.Version, Method: SelectMethod(mreq.Methods)}
		next := AwaitingRequest{Version: mreq.Version, Methods: mreq.Methods}
		return next, reply.Bytes(), len(chunk) - len(s), nil

	default:
		panic("socks5: unknown handshake state")
	}
}

// Handshake drives [Advance] over a byte stream that may be split at any
// boundary. Input that does not yet form a whole message is kept and retried
// on the next Feed.
type Handshake struct {
	state   State
	pending []byte
}

// NewHandshake returns a Handshake in the Init state.
func NewHandshake() *Handshake {
	return &Handshake{state: Init{}}
}

// State returns the current state.
func (h *Handshake) State() State {
	return h.state
}

// Feed appends chunk to any unconsumed input and advances by at most one
// message. It returns the bytes to send to the client.
//
// If a message is consumed and more input remains, the rest is kept; call
// Feed(nil) to process it. ErrIncomplete means more input is needed. Once
// Completed, Feed does nothing.
func (h *Handshake) Feed(chunk []byte) ([]byte, error) {
	if _, done := h.state.(Completed); done {
		return nil, nil
	}

	h.pending = append(h.pending, chunk...)
	next, reply, n, err := advance(h.state, h.pending)
	if err != nil {
		return nil, err
	}
	h.state = next
	h.pending = h.pending[n:]
	return reply, nil
}

// Buffered returns input received beyond the end of the handshake. It is
// only meaningful once the state is Completed, when it holds bytes the
// client sent ahead of the reply.
func (h *Handshake) Buffered() []byte {
	return h.pending
}

