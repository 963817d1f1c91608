package handshake

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/app/protocol/protocolerrors"
	"github.com/marabunet/marabud/infrastructure/network/netadapter/jsonwire"
	"github.com/pkg/errors"
)

// State is the handshake state of a connection.
type State uint32

// Handshake states. A connection starts in StateAwaitingHello, and
// StateClosed is terminal.
const (
	StateAwaitingHello State = iota
	StateReady
	StateClosed
)

var stateStrings = map[State]string{
	StateAwaitingHello: "AwaitingHello",
	StateReady:         "Ready",
	StateClosed:        "Closed",
}

func (s State) String() string {
	if str, ok := stateStrings[s]; ok {
		return str
	}
	return fmt.Sprintf("State(%d)", uint32(s))
}

// ErrGateClosed is returned by Admit once the gate is closed.
var ErrGateClosed = errors.New("handshake gate is closed")

// Gate decides which messages received on a connection may be dispatched.
// Nothing but a hello is accepted until the peer has sent a valid one.
//
// A Gate is driven by its connection's read loop only; State may be read from
// anywhere.
type Gate struct {
	address string
	state   uint32
	hello   *appmessage.MsgHello
}

// NewGate returns a Gate in StateAwaitingHello for the peer at address.
func NewGate(address string) *Gate {
	return &Gate{
		address: address,
		state:   uint32(StateAwaitingHello),
	}
}

// State returns the current handshake state.
func (g *Gate) State() State {
	return State(atomic.LoadUint32(&g.state))
}

func (g *Gate) setState(state State) {
	atomic.StoreUint32(&g.state, uint32(state))
}

// PeerHello returns the hello the peer completed the handshake with, or nil
// while awaiting it.
func (g *Gate) PeerHello() *appmessage.MsgHello {
	return g.hello
}

// Admit passes a validated message through the gate. It returns true if the
// message should be dispatched. The hello that completes the handshake is
// consumed by the gate. Any error returned while awaiting hello is a fatal
// INVALID_HANDSHAKE, and the gate is closed.
func (g *Gate) Admit(message appmessage.Message) (bool, error) {
	switch g.State() {
	case StateReady:
		return true, nil
	case StateClosed:
		return false, errors.WithStack(ErrGateClosed)
	}

	msgHello, ok := message.(*appmessage.MsgHello)
	if !ok {
		g.Close()
		return false, protocolerrors.Errorf(true, appmessage.ErrorCodeInvalidHandshake,
			"expected a hello message, got %s", message.Command())
	}
	err := checkHello(msgHello)
	if err != nil {
		g.Close()
		return false, err
	}

	g.hello = msgHello
	g.setState(StateReady)
	log.Debugf("Completed handshake with %s (version %s, agent %q)", g.address, msgHello.Version, msgHello.Agent)
	return false, nil
}

// RejectInvalid turns a frame that failed parsing or validation into the
// protocol error to report. A parse failure is a recoverable INVALID_FORMAT
// in any state. A frame that is well-formed JSON but not a valid message
// fails the handshake while awaiting hello, and is a recoverable
// INVALID_FORMAT afterwards.
func (g *Gate) RejectInvalid(cause error) error {
	parseErr := &jsonwire.ParseError{}
	if errors.As(cause, &parseErr) {
		return protocolerrors.New(false, appmessage.ErrorCodeInvalidFormat, parseErr.Description)
	}

	if g.State() == StateAwaitingHello {
		g.Close()
		return protocolerrors.Errorf(true, appmessage.ErrorCodeInvalidHandshake,
			"expected a valid hello message: %s", cause)
	}
	return protocolerrors.New(false, appmessage.ErrorCodeInvalidFormat, cause.Error())
}

// TimedOut closes the gate if it's still awaiting hello, and returns the
// INVALID_HANDSHAKE error to report. It returns nil if the handshake has
// already completed.
func (g *Gate) TimedOut(timeout time.Duration) error {
	if g.State() != StateAwaitingHello {
		return nil
	}
	g.Close()
	return protocolerrors.Errorf(true, appmessage.ErrorCodeInvalidHandshake,
		"no hello message received within %s", timeout)
}

// Close moves the gate to StateClosed.
func (g *Gate) Close() {
	g.setState(StateClosed)
}
