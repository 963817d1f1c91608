package app

import (
	"testing"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/infrastructure/config"
)

func TestNewDomain(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ExternalIPs = []string{"203.0.113.7:18018"}

	domain, err := newDomain(cfg)
	if err != nil {
		t.Fatalf("TestNewDomain: newDomain: %s", err)
	}

	peers := domain.PeerTable().List()
	if len(peers) != 1 || peers[0] != "203.0.113.7:18018" {
		t.Fatalf("TestNewDomain: expected the peer table to be seeded with the external IP, got %v", peers)
	}

	if _, ok := domain.ChainTip().Current(); ok {
		t.Fatalf("TestNewDomain: expected no chain tip before any block")
	}

	txID, err := domain.ObjectStore().Put(appmessage.RawObject(`{"type":"transaction","outputs":[]}`))
	if err != nil {
		t.Fatalf("TestNewDomain: Put transaction: %s", err)
	}
	txIDs := domain.Mempool().ListTxIDs()
	if len(txIDs) != 1 || txIDs[0] != txID {
		t.Fatalf("TestNewDomain: expected mempool [%s], got %v", txID, txIDs)
	}

	blockID, err := domain.ObjectStore().Put(appmessage.RawObject(`{"type":"block","txids":[]}`))
	if err != nil {
		t.Fatalf("TestNewDomain: Put block: %s", err)
	}
	tip, ok := domain.ChainTip().Current()
	if !ok || tip != blockID {
		t.Fatalf("TestNewDomain: expected chain tip %s, got %s", blockID, tip)
	}
	if len(domain.Mempool().ListTxIDs()) != 1 {
		t.Fatalf("TestNewDomain: a block must not join the mempool")
	}
}

func TestComponentManagerStartStop(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Listen = "127.0.0.1:0"
	cfg.TargetOutboundPeers = 0

	componentManager, err := NewComponentManager(cfg)
	if err != nil {
		t.Fatalf("TestComponentManagerStartStop: NewComponentManager: %s", err)
	}
	componentManager.Start()
	if componentManager.NetAdapter().ListenAddress() == nil {
		t.Fatalf("TestComponentManagerStartStop: expected a listen address after Start")
	}
	componentManager.Stop()
	// A second Stop is a no-op.
	componentManager.Stop()
}
