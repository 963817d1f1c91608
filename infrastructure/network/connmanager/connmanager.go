package connmanager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/marabunet/marabud/domain"
	"github.com/marabunet/marabud/infrastructure/config"
	"github.com/marabunet/marabud/infrastructure/logger"
	"github.com/marabunet/marabud/infrastructure/network/netadapter"
)

// connectionRequest represents a user request (through the CLI) to connect
// to a certain node
type connectionRequest struct {
	address       string
	isPermanent   bool
	nextAttempt   time.Time
	retryDuration time.Duration
}

// NetAdapter is the part of the net adapter the connection manager drives.
type NetAdapter interface {
	Connect(address string) (*netadapter.NetConnection, error)
	Connections() []*netadapter.NetConnection
}

// ConnectionManager monitors that the current active connections satisfy the
// requirements of requested, outgoing and incoming connections
type ConnectionManager struct {
	cfg        *config.Config
	netAdapter NetAdapter
	peerTable  domain.PeerTable

	activeRequested  map[string]*connectionRequest
	pendingRequested map[string]*connectionRequest
	activeOutgoing   map[string]struct{}
	failedOutgoing   map[string]time.Time
	ownAddresses     map[string]struct{}
	targetOutgoing   int
	maxIncoming      int

	stop                   uint32
	stopChan               chan struct{}
	connectionRequestsLock sync.Mutex

	resetLoopChan chan struct{}
	loopTicker    *time.Ticker
}

// New instantiates a new instance of a ConnectionManager
func New(cfg *config.Config, netAdapter NetAdapter, peerTable domain.PeerTable) (*ConnectionManager, error) {
	c := &ConnectionManager{
		cfg:              cfg,
		netAdapter:       netAdapter,
		peerTable:        peerTable,
		activeRequested:  map[string]*connectionRequest{},
		pendingRequested: map[string]*connectionRequest{},
		activeOutgoing:   map[string]struct{}{},
		failedOutgoing:   map[string]time.Time{},
		ownAddresses:     map[string]struct{}{},
		targetOutgoing:   cfg.TargetOutboundPeers,
		maxIncoming:      cfg.MaxInboundPeers,
		stopChan:         make(chan struct{}),
		resetLoopChan:    make(chan struct{}),
		loopTicker:       time.NewTicker(connectionsLoopInterval),
	}

	if !cfg.NoListen {
		c.ownAddresses[cfg.Listen] = struct{}{}
	}
	for _, externalIP := range cfg.ExternalIPs {
		c.ownAddresses[externalIP] = struct{}{}
	}

	for _, connectPeer := range cfg.AddPeers {
		c.pendingRequested[connectPeer] = &connectionRequest{
			address:     connectPeer,
			isPermanent: true,
		}
	}

	return c, nil
}

// Start begins the operation of the ConnectionManager
func (c *ConnectionManager) Start() {
	spawn("ConnectionManager.connectionsLoop", c.connectionsLoop)
}

// Stop halts the operation of the ConnectionManager. Open connections are
// left to the net adapter.
func (c *ConnectionManager) Stop() {
	if atomic.AddUint32(&c.stop, 1) != 1 {
		return
	}
	close(c.stopChan)
	c.loopTicker.Stop()
}

func (c *ConnectionManager) isStopping() bool {
	return atomic.LoadUint32(&c.stop) != 0
}

func (c *ConnectionManager) initiateConnection(address string) error {
	log.Infof("Connecting to %s", address)
	_, err := c.netAdapter.Connect(address)
	return err
}

const connectionsLoopInterval = 30 * time.Second

func (c *ConnectionManager) connectionsLoop() {
	for !c.isStopping() {
		c.checkConnections()
		c.waitTillNextIteration()
	}
}

// checkConnections runs one pass over all connections. The connections list
// is converted to a set, and every check removes the connections it's
// responsible for, so that only the incoming ones are left for
// checkIncomingConnections.
func (c *ConnectionManager) checkConnections() {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ConnectionManager.checkConnections")
	defer onEnd()

	connSet := convertToSet(c.netAdapter.Connections())

	c.checkRequestedConnections(connSet)
	c.checkOutgoingConnections(connSet)
	c.checkIncomingConnections(connSet)
}

// run wakes up the connections loop before its next tick.
func (c *ConnectionManager) run() {
	select {
	case c.resetLoopChan <- struct{}{}:
	case <-c.stopChan:
	}
}

func (c *ConnectionManager) waitTillNextIteration() {
	select {
	case <-c.resetLoopChan:
	case <-c.loopTicker.C:
	case <-c.stopChan:
	}
}
