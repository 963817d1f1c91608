package protocol

import (
	"sync"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/domain"
	"github.com/marabunet/marabud/infrastructure/config"
	"github.com/marabunet/marabud/infrastructure/network/netadapter"
	"github.com/pkg/errors"
)

// Manager manages the p2p protocol: it runs the message processing loop of
// every connection the net adapter hands it.
type Manager struct {
	cfg        *config.Config
	domain     domain.Domain
	netAdapter *netadapter.NetAdapter

	readyPeers     map[*netadapter.NetConnection]*appmessage.MsgHello
	readyPeersLock sync.RWMutex

	connectionsWaitGroup sync.WaitGroup
	isClosed             bool
	closeLock            sync.Mutex
}

// NewManager creates a new instance of the p2p protocol manager and
// registers it as netAdapter's connection handler.
func NewManager(cfg *config.Config, domain domain.Domain, netAdapter *netadapter.NetAdapter) (*Manager, error) {
	manager := &Manager{
		cfg:        cfg,
		domain:     domain,
		netAdapter: netAdapter,
		readyPeers: make(map[*netadapter.NetConnection]*appmessage.MsgHello),
	}

	netAdapter.SetConnectionHandler(manager.handleConnection)
	return manager, nil
}

// Close closes the protocol manager and waits until the processing loops of
// all connections finish. Connections have to be disconnected separately,
// by stopping the net adapter.
func (m *Manager) Close() {
	m.closeLock.Lock()
	if m.isClosed {
		m.closeLock.Unlock()
		panic(errors.New("The protocol manager was already closed"))
	}
	m.isClosed = true
	m.closeLock.Unlock()

	m.connectionsWaitGroup.Wait()
}

// ReadyPeers returns the addresses of the peers that completed the
// handshake, along with their hello messages.
func (m *Manager) ReadyPeers() map[string]*appmessage.MsgHello {
	m.readyPeersLock.RLock()
	defer m.readyPeersLock.RUnlock()

	readyPeers := make(map[string]*appmessage.MsgHello, len(m.readyPeers))
	for connection, msgHello := range m.readyPeers {
		readyPeers[connection.Address()] = msgHello
	}
	return readyPeers
}

// ReadyPeerCount returns the number of peers that completed the handshake.
func (m *Manager) ReadyPeerCount() int {
	m.readyPeersLock.RLock()
	defer m.readyPeersLock.RUnlock()

	return len(m.readyPeers)
}

func (m *Manager) addReadyPeer(connection *netadapter.NetConnection, msgHello *appmessage.MsgHello) {
	m.readyPeersLock.Lock()
	defer m.readyPeersLock.Unlock()

	m.readyPeers[connection] = msgHello
}

func (m *Manager) removeReadyPeer(connection *netadapter.NetConnection) {
	m.readyPeersLock.Lock()
	defer m.readyPeersLock.Unlock()

	delete(m.readyPeers, connection)
}
