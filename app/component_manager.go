package app

import (
	"fmt"
	"sync/atomic"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/app/protocol"
	"github.com/marabunet/marabud/domain"
	"github.com/marabunet/marabud/domain/chaintip"
	"github.com/marabunet/marabud/domain/mempool"
	"github.com/marabunet/marabud/domain/objectstore"
	"github.com/marabunet/marabud/domain/peertable"
	"github.com/marabunet/marabud/infrastructure/config"
	"github.com/marabunet/marabud/infrastructure/network/connmanager"
	"github.com/marabunet/marabud/infrastructure/network/netadapter"
	"github.com/marabunet/marabud/util/panics"
)

// ComponentManager is a wrapper for all the marabud services
type ComponentManager struct {
	cfg               *config.Config
	domain            domain.Domain
	protocolManager   *protocol.Manager
	connectionManager *connmanager.ConnectionManager
	netAdapter        *netadapter.NetAdapter

	started, shutdown int32
}

// Start launches all the marabud services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Trace("Starting marabud")

	err := a.netAdapter.Start()
	if err != nil {
		panics.Exit(log, fmt.Sprintf("Error starting the net adapter: %+v", err))
	}

	a.connectionManager.Start()
}

// Stop gracefully shuts down all the marabud services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Marabud is already in the process of shutting down")
		return
	}

	log.Warnf("Marabud shutting down")

	a.connectionManager.Stop()

	err := a.netAdapter.Stop()
	if err != nil {
		log.Errorf("Error stopping the net adapter: %+v", err)
	}

	a.protocolManager.Close()
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config) (*ComponentManager, error) {
	domain, err := newDomain(cfg)
	if err != nil {
		return nil, err
	}

	netAdapter, err := netadapter.NewNetAdapter(cfg)
	if err != nil {
		return nil, err
	}

	protocolManager, err := protocol.NewManager(cfg, domain, netAdapter)
	if err != nil {
		return nil, err
	}

	connectionManager, err := connmanager.New(cfg, netAdapter, domain.PeerTable())
	if err != nil {
		return nil, err
	}

	return &ComponentManager{
		cfg:               cfg,
		domain:            domain,
		protocolManager:   protocolManager,
		connectionManager: connectionManager,
		netAdapter:        netAdapter,
	}, nil
}

// newDomain builds the in-memory collaborators. Accepted transactions join
// the mempool and the latest accepted block becomes the chain tip.
func newDomain(cfg *config.Config) (domain.Domain, error) {
	peerTable, err := peertable.New(peertable.DefaultMaxPeers, cfg.ExternalIPs...)
	if err != nil {
		return nil, err
	}

	txPool := mempool.New()
	tip := chaintip.New()
	objectStore := objectstore.New()
	objectStore.AddOnObjectAddedHandler(func(objectID appmessage.ObjectID, objectType string) {
		switch objectType {
		case objectstore.TypeTransaction:
			txPool.Add(objectID)
		case objectstore.TypeBlock:
			tip.Set(objectID)
		}
	})

	return domain.New(peerTable, objectStore, txPool, tip), nil
}

// Domain returns the collaborators this ComponentManager serves peers from
func (a *ComponentManager) Domain() domain.Domain {
	return a.domain
}

// NetAdapter returns the NetAdapter associated with this ComponentManager
func (a *ComponentManager) NetAdapter() *netadapter.NetAdapter {
	return a.netAdapter
}
