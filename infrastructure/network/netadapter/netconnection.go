package netadapter

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/infrastructure/network/netadapter/jsonwire"
	"github.com/marabunet/marabud/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

const (
	readBufferSize = 4096

	// outgoingRouteCapacity bounds the messages waiting to be written to a
	// peer. A peer that lets it fill up is disconnected.
	outgoingRouteCapacity = 256
)

var (
	// ErrIdleTimeout is returned by ReadFrame when no complete frame arrived
	// within the idle timeout.
	ErrIdleTimeout = errors.New("no complete frame received within the idle timeout")

	// ErrPartialTimeout is returned by ReadFrame when an incomplete frame has
	// been buffered for longer than the partial message timeout.
	ErrPartialTimeout = errors.New("incomplete frame not completed within the partial message timeout")

	// ErrHandshakeTimeout is returned by ReadFrame when the handshake deadline
	// passed before CompleteHandshake was called.
	ErrHandshakeTimeout = errors.New("handshake not completed in time")

	// ErrDisconnected is returned by ReadFrame once the connection was
	// disconnected locally.
	ErrDisconnected = errors.New("connection is disconnected")
)

// Timeouts holds the deadlines enforced on a connection. A zero duration
// disables the corresponding deadline.
type Timeouts struct {
	Handshake      time.Duration
	PartialMessage time.Duration
	Idle           time.Duration
	Write          time.Duration
}

type deadlineKind int

const (
	deadlineNone deadlineKind = iota
	deadlineIdle
	deadlinePartial
	deadlineHandshake
)

// NetConnection is one TCP session with a peer. Frames are read by a single
// reader through ReadFrame. Outgoing messages are queued with Enqueue and
// written in order by the connection's send loop.
type NetConnection struct {
	connection net.Conn
	address    string
	isOutbound bool
	timeouts   Timeouts

	framer            *jsonwire.Framer
	readBuffer        []byte
	lastFrameTime     time.Time
	partialStartTime  time.Time
	handshakeDeadline time.Time
	pendingReadErr    error

	outgoingRoute *router.Route
	sendLoopDone  chan struct{}

	isConnected           uint32
	disconnectOnce        sync.Once
	onDisconnectedHandler func()
}

// newNetConnection wraps connection. address is the address the connection
// was dialed at for outbound connections, and empty for inbound ones.
func newNetConnection(connection net.Conn, address string, isOutbound bool, maxFrameSize int, timeouts Timeouts) *NetConnection {
	if address == "" {
		address = connection.RemoteAddr().String()
	}
	now := time.Now()
	netConnection := &NetConnection{
		connection:    connection,
		address:       address,
		isOutbound:    isOutbound,
		timeouts:      timeouts,
		framer:        jsonwire.NewFramer(maxFrameSize),
		readBuffer:    make([]byte, readBufferSize),
		lastFrameTime: now,
		outgoingRoute: router.NewRouteWithCapacity(fmt.Sprintf("outgoing-%s", address), outgoingRouteCapacity),
		sendLoopDone:  make(chan struct{}),
		isConnected:   1,
	}
	if timeouts.Handshake > 0 {
		netConnection.handshakeDeadline = now.Add(timeouts.Handshake)
	}
	return netConnection
}

func (c *NetConnection) start() {
	spawn("NetConnection.sendLoop", c.sendLoop)
}

func (c *NetConnection) String() string {
	return c.address
}

// Address returns the peer's transport address. For outbound connections
// it's the address that was dialed.
func (c *NetConnection) Address() string {
	return c.address
}

// IsOutbound returns whether the connection was initiated by this node.
func (c *NetConnection) IsOutbound() bool {
	return c.isOutbound
}

// IsConnected returns whether Disconnect hasn't been called yet.
func (c *NetConnection) IsConnected() bool {
	return atomic.LoadUint32(&c.isConnected) != 0
}

// CompleteHandshake lifts the handshake deadline.
func (c *NetConnection) CompleteHandshake() {
	c.handshakeDeadline = time.Time{}
}

// Timeouts returns the deadlines enforced on this connection.
func (c *NetConnection) Timeouts() Timeouts {
	return c.timeouts
}

// ReadFrame blocks until a complete non-blank frame is received and returns
// it without its line terminator. It fails with jsonwire.ErrFrameTooLarge,
// one of the timeout errors, ErrDisconnected, io.EOF when the peer closed
// the connection, or the underlying read error.
func (c *NetConnection) ReadFrame() ([]byte, error) {
	for {
		if !c.IsConnected() {
			return nil, errors.WithStack(ErrDisconnected)
		}

		frame, ok, err := c.framer.Next()
		if err != nil {
			return nil, err
		}
		if ok {
			c.lastFrameTime = time.Now()
			if c.framer.Buffered() > 0 {
				c.partialStartTime = c.lastFrameTime
			} else {
				c.partialStartTime = time.Time{}
			}
			if len(frame) == 0 {
				continue
			}
			return frame, nil
		}
		if c.pendingReadErr != nil {
			err := c.pendingReadErr
			c.pendingReadErr = nil
			return nil, err
		}

		deadline, kind := c.nextReadDeadline()
		err = c.connection.SetReadDeadline(deadline)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to set read deadline for %s", c)
		}

		n, readErr := c.connection.Read(c.readBuffer)
		if n > 0 {
			_, _ = c.framer.Write(c.readBuffer[:n])
			if c.partialStartTime.IsZero() {
				c.partialStartTime = time.Now()
			}
		}
		if readErr != nil {
			err := c.translateReadError(readErr, kind)
			if n == 0 {
				return nil, err
			}
			// Frames completed by this read are returned before the error
			c.pendingReadErr = err
		}
	}
}

func (c *NetConnection) nextReadDeadline() (time.Time, deadlineKind) {
	var deadline time.Time
	kind := deadlineNone
	consider := func(candidate time.Time, candidateKind deadlineKind) {
		if candidate.IsZero() {
			return
		}
		if deadline.IsZero() || candidate.Before(deadline) {
			deadline = candidate
			kind = candidateKind
		}
	}

	if c.timeouts.Idle > 0 {
		consider(c.lastFrameTime.Add(c.timeouts.Idle), deadlineIdle)
	}
	if c.timeouts.PartialMessage > 0 && c.framer.Buffered() > 0 && !c.partialStartTime.IsZero() {
		consider(c.partialStartTime.Add(c.timeouts.PartialMessage), deadlinePartial)
	}
	consider(c.handshakeDeadline, deadlineHandshake)
	return deadline, kind
}

func (c *NetConnection) translateReadError(err error, kind deadlineKind) error {
	if !c.IsConnected() {
		return errors.WithStack(ErrDisconnected)
	}
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		switch kind {
		case deadlineHandshake:
			return errors.WithStack(ErrHandshakeTimeout)
		case deadlinePartial:
			return errors.WithStack(ErrPartialTimeout)
		case deadlineIdle:
			return errors.WithStack(ErrIdleTimeout)
		}
	}
	return errors.Wrapf(err, "failed to read from %s", c)
}

// Enqueue queues message to be sent to the peer. A peer that doesn't drain
// its queue is disconnected.
func (c *NetConnection) Enqueue(message appmessage.Message) error {
	err := c.outgoingRoute.Enqueue(message)
	if errors.Is(err, router.ErrRouteCapacityReached) {
		log.Warnf("Outgoing queue of %s is full, disconnecting", c)
		c.Disconnect()
	}
	return err
}

func (c *NetConnection) sendLoop() {
	defer close(c.sendLoopDone)
	defer func() {
		err := c.connection.Close()
		if err != nil {
			log.Debugf("Error closing connection to %s: %s", c, err)
		}
	}()

	for {
		message, err := c.outgoingRoute.Dequeue()
		if err != nil {
			return
		}
		frame, err := jsonwire.Encode(message)
		if err != nil {
			log.Errorf("Failed to encode %s message for %s: %+v", message.Command(), c, err)
			continue
		}

		if c.timeouts.Write > 0 {
			err = c.connection.SetWriteDeadline(time.Now().Add(c.timeouts.Write))
			if err != nil {
				log.Debugf("Failed to set write deadline for %s: %s", c, err)
				c.Disconnect()
				return
			}
		}
		_, err = c.connection.Write(frame)
		if err != nil {
			log.Debugf("Failed to write %s message to %s: %s", message.Command(), c, err)
			c.Disconnect()
			return
		}
		log.Tracef("Sent %s message to %s", message.Command(), c)
	}
}

// Disconnect closes the connection. Messages already queued are still
// written before the socket is closed. Calling Disconnect more than once
// has no effect.
func (c *NetConnection) Disconnect() {
	c.disconnectOnce.Do(func() {
		atomic.StoreUint32(&c.isConnected, 0)
		c.outgoingRoute.Close()

		// Wake up a reader blocked in ReadFrame
		_ = c.connection.SetReadDeadline(time.Now())

		log.Debugf("Disconnected from %s", c)
		if c.onDisconnectedHandler != nil {
			c.onDisconnectedHandler()
		}
	})
}

// WaitClosed blocks until the socket was closed after a Disconnect.
func (c *NetConnection) WaitClosed() {
	<-c.sendLoopDone
}

func (c *NetConnection) setOnDisconnectedHandler(onDisconnectedHandler func()) {
	c.onDisconnectedHandler = onDisconnectedHandler
}
