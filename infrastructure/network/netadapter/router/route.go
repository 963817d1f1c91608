package router

import (
	"sync"
	"time"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/pkg/errors"
)

const (
	// DefaultMaxMessages is the default capacity for a route with a capacity defined
	DefaultMaxMessages = 1000
)

var (
	// ErrTimeout signifies that one of the route functions had a timeout.
	ErrTimeout = errors.New("timeout expired")

	// ErrRouteClosed indicates that a route was closed while reading/writing.
	ErrRouteClosed = errors.New("route is closed")

	// ErrRouteCapacityReached indicates that route's capacity has been reached
	ErrRouteCapacityReached = errors.New("route capacity has been reached")
)

// Route is a bounded FIFO of messages. A connection's outgoing messages go
// through one so that producers never block on the socket.
type Route struct {
	name    string
	channel chan appmessage.Message
	// closed and closeLock are used to protect us from writing to a closed channel
	// reads use the channel's built-in mechanism to check if the channel is closed
	closed    bool
	closeLock sync.Mutex
	capacity  int
}

// NewRoute create a new Route
func NewRoute(name string) *Route {
	return NewRouteWithCapacity(name, DefaultMaxMessages)
}

// NewRouteWithCapacity creates a new Route holding at most capacity messages.
func NewRouteWithCapacity(name string, capacity int) *Route {
	return &Route{
		name:     name,
		channel:  make(chan appmessage.Message, capacity),
		closed:   false,
		capacity: capacity,
	}
}

// Enqueue enqueues a message to the Route
func (r *Route) Enqueue(message appmessage.Message) error {
	r.closeLock.Lock()
	defer r.closeLock.Unlock()

	if r.closed {
		return errors.WithStack(ErrRouteClosed)
	}
	if len(r.channel) == r.capacity {
		return errors.Wrapf(ErrRouteCapacityReached, "route '%s' reached capacity of %d", r.name, r.capacity)
	}
	r.channel <- message
	return nil
}

// Dequeue dequeues a message from the Route. Messages enqueued before Close
// are still returned; ErrRouteClosed follows once the route is drained.
func (r *Route) Dequeue() (appmessage.Message, error) {
	message, isOpen := <-r.channel
	if !isOpen {
		return nil, errors.Wrapf(ErrRouteClosed, "route '%s' is closed", r.name)
	}
	return message, nil
}

// DequeueWithTimeout attempts to dequeue a message from the Route
// and returns an error if the given timeout expires first.
func (r *Route) DequeueWithTimeout(timeout time.Duration) (appmessage.Message, error) {
	select {
	case <-time.After(timeout):
		return nil, errors.Wrapf(ErrTimeout, "route '%s' got timeout after %s", r.name, timeout)
	case message, isOpen := <-r.channel:
		if !isOpen {
			return nil, errors.WithStack(ErrRouteClosed)
		}
		return message, nil
	}
}

// Close closes this route. Calling Close more than once is a no-op.
func (r *Route) Close() {
	r.closeLock.Lock()
	defer r.closeLock.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.channel)
}

// IsClosed returns whether Close was called.
func (r *Route) IsClosed() bool {
	r.closeLock.Lock()
	defer r.closeLock.Unlock()

	return r.closed
}
