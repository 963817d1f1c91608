package netadapter

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marabunet/marabud/infrastructure/config"
	"github.com/pkg/errors"
)

const (
	connectTimeout    = 10 * time.Second
	acceptRetryDelay  = 100 * time.Millisecond
	maxAcceptRetryGap = time.Second
)

// ConnectionHandler runs the protocol on a new connection. It's called on
// the connection's own goroutine, and the connection is disconnected once it
// returns.
type ConnectionHandler func(connection *NetConnection)

// NetAdapter is an abstraction layer over networking. It accepts inbound
// TCP connections, dials outbound ones, and keeps a registry of the
// connections that are currently open.
type NetAdapter struct {
	cfg               *config.Config
	connectionHandler ConnectionHandler
	listener          net.Listener
	stop              uint32

	connections     map[*NetConnection]struct{}
	connectionsLock sync.RWMutex
}

// NewNetAdapter creates a new NetAdapter. Nothing is started until Start is
// called.
func NewNetAdapter(cfg *config.Config) (*NetAdapter, error) {
	if cfg.Dial == nil {
		return nil, errors.New("config has no Dial function")
	}
	return &NetAdapter{
		cfg:         cfg,
		connections: make(map[*NetConnection]struct{}),
	}, nil
}

// SetConnectionHandler sets the function that runs on every new connection.
func (na *NetAdapter) SetConnectionHandler(connectionHandler ConnectionHandler) {
	na.connectionHandler = connectionHandler
}

// Start begins listening for inbound connections, unless listening is
// disabled.
func (na *NetAdapter) Start() error {
	if na.connectionHandler == nil {
		return errors.New("connectionHandler was not set")
	}
	if na.cfg.NoListen {
		log.Infof("Not listening for inbound connections")
		return nil
	}

	listener, err := net.Listen("tcp", na.cfg.Listen)
	if err != nil {
		return errors.Wrapf(err, "error listening on %s", na.cfg.Listen)
	}
	na.listener = listener
	log.Infof("P2P server listening on %s", listener.Addr())

	spawn("NetAdapter.acceptLoop", na.acceptLoop)
	return nil
}

// Stop closes the listener and disconnects every open connection.
func (na *NetAdapter) Stop() error {
	if atomic.AddUint32(&na.stop, 1) != 1 {
		return errors.New("net adapter stopped more than once")
	}
	if na.listener != nil {
		err := na.listener.Close()
		if err != nil {
			log.Warnf("Error closing listener: %s", err)
		}
	}
	for _, connection := range na.Connections() {
		connection.Disconnect()
	}
	return nil
}

func (na *NetAdapter) isStopping() bool {
	return atomic.LoadUint32(&na.stop) != 0
}

// ListenAddress returns the address the adapter is listening on, or nil if
// it isn't listening.
func (na *NetAdapter) ListenAddress() net.Addr {
	if na.listener == nil {
		return nil
	}
	return na.listener.Addr()
}

func (na *NetAdapter) acceptLoop() {
	retryDelay := acceptRetryDelay
	for {
		connection, err := na.listener.Accept()
		if err != nil {
			if na.isStopping() {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Temporary() {
				log.Warnf("Temporary error accepting connections: %s", err)
				time.Sleep(retryDelay)
				retryDelay *= 2
				if retryDelay > maxAcceptRetryGap {
					retryDelay = maxAcceptRetryGap
				}
				continue
			}
			log.Errorf("Stopped accepting connections: %s", err)
			return
		}
		retryDelay = acceptRetryDelay

		if na.cfg.MaxInboundPeers > 0 && na.InboundConnectionCount() >= na.cfg.MaxInboundPeers {
			log.Infof("Refusing inbound connection from %s: at the maximum of %d inbound peers",
				connection.RemoteAddr(), na.cfg.MaxInboundPeers)
			_ = connection.Close()
			continue
		}

		log.Infof("Incoming connection from %s", connection.RemoteAddr())
		na.onConnected(connection, "", false)
	}
}

// Connect dials address and runs the connection handler on the new
// connection.
func (na *NetAdapter) Connect(address string) (*NetConnection, error) {
	if na.isStopping() {
		return nil, errors.New("net adapter is stopping")
	}
	connection, err := na.cfg.Dial("tcp", address, connectTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "error connecting to %s", address)
	}
	log.Infof("Connected to %s", address)
	return na.onConnected(connection, address, true), nil
}

func (na *NetAdapter) onConnected(connection net.Conn, address string, isOutbound bool) *NetConnection {
	netConnection := newNetConnection(connection, address, isOutbound, na.cfg.MaxFrameSize, Timeouts{
		Handshake:      na.cfg.HandshakeTimeout,
		PartialMessage: na.cfg.PartialMessageTimeout,
		Idle:           na.cfg.IdleTimeout,
		Write:          na.cfg.WriteTimeout,
	})

	na.connectionsLock.Lock()
	netConnection.setOnDisconnectedHandler(func() {
		na.connectionsLock.Lock()
		defer na.connectionsLock.Unlock()

		delete(na.connections, netConnection)
	})
	na.connections[netConnection] = struct{}{}
	na.connectionsLock.Unlock()

	netConnection.start()
	spawn("NetAdapter.connectionHandler", func() {
		defer netConnection.Disconnect()
		na.connectionHandler(netConnection)
	})

	return netConnection
}

// Connections returns the currently open connections.
func (na *NetAdapter) Connections() []*NetConnection {
	na.connectionsLock.RLock()
	defer na.connectionsLock.RUnlock()

	connections := make([]*NetConnection, 0, len(na.connections))
	for connection := range na.connections {
		connections = append(connections, connection)
	}
	return connections
}

// ConnectionCount returns the number of open connections.
func (na *NetAdapter) ConnectionCount() int {
	na.connectionsLock.RLock()
	defer na.connectionsLock.RUnlock()

	return len(na.connections)
}

// InboundConnectionCount returns the number of open inbound connections.
func (na *NetAdapter) InboundConnectionCount() int {
	na.connectionsLock.RLock()
	defer na.connectionsLock.RUnlock()

	count := 0
	for connection := range na.connections {
		if !connection.IsOutbound() {
			count++
		}
	}
	return count
}
