package connmanager

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/marabunet/marabud/domain/peertable"
	"github.com/marabunet/marabud/infrastructure/config"
	"github.com/marabunet/marabud/infrastructure/network/netadapter"
	"github.com/pkg/errors"
)

type fakeNetAdapter struct {
	sync.Mutex
	dialed      []string
	unreachable map[string]bool
}

func (na *fakeNetAdapter) Connect(address string) (*netadapter.NetConnection, error) {
	na.Lock()
	defer na.Unlock()
	na.dialed = append(na.dialed, address)
	if na.unreachable[address] {
		return nil, errors.Errorf("%s is unreachable", address)
	}
	return nil, nil
}

func (na *fakeNetAdapter) Connections() []*netadapter.NetConnection {
	return nil
}

func (na *fakeNetAdapter) dialedAddresses() []string {
	na.Lock()
	defer na.Unlock()
	dialed := append([]string(nil), na.dialed...)
	sort.Strings(dialed)
	return dialed
}

func (na *fakeNetAdapter) reset() {
	na.Lock()
	defer na.Unlock()
	na.dialed = nil
}

func newTestConnectionManager(t *testing.T, cfg *config.Config, peers ...string) (*ConnectionManager, *fakeNetAdapter) {
	table, err := peertable.New(peertable.DefaultMaxPeers, peers...)
	if err != nil {
		t.Fatalf("peertable.New: %s", err)
	}
	netAdapter := &fakeNetAdapter{unreachable: map[string]bool{}}
	connectionManager, err := New(cfg, netAdapter, table)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	t.Cleanup(connectionManager.Stop)
	return connectionManager, netAdapter
}

func TestNextRetryDuration(t *testing.T) {
	tests := []struct {
		previous time.Duration
		expected time.Duration
	}{
		{0, 30 * time.Second},
		{30 * time.Second, time.Minute},
		{time.Minute, 2 * time.Minute},
		{4 * time.Minute, 8 * time.Minute},
		{8 * time.Minute, 10 * time.Minute},
		{10 * time.Minute, 10 * time.Minute},
	}
	for _, test := range tests {
		result := nextRetryDuration(test.previous)
		if result != test.expected {
			t.Fatalf("TestNextRetryDuration: nextRetryDuration(%s): got %s, want %s",
				test.previous, result, test.expected)
		}
	}
}

func TestCheckOutgoingConnections(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TargetOutboundPeers = 2
	cfg.Listen = "127.0.0.1:18018"
	cfg.ExternalIPs = []string{"203.0.113.7:18018"}

	connectionManager, netAdapter := newTestConnectionManager(t, cfg,
		"127.0.0.1:18018", "203.0.113.7:18018", "10.0.0.1:18018", "10.0.0.2:18018", "10.0.0.3:18018")
	netAdapter.unreachable["10.0.0.3:18018"] = true

	connectionManager.checkOutgoingConnections(connectionSet{})

	dialed := netAdapter.dialedAddresses()
	for _, address := range dialed {
		if address == "127.0.0.1:18018" || address == "203.0.113.7:18018" {
			t.Fatalf("TestCheckOutgoingConnections: dialed our own address %s", address)
		}
	}
	if len(connectionManager.activeOutgoing) != 2 {
		t.Fatalf("TestCheckOutgoingConnections: expected 2 active outgoing connections, got %s",
			spew.Sdump(connectionManager.activeOutgoing))
	}
	for address := range connectionManager.activeOutgoing {
		if address == "10.0.0.3:18018" {
			t.Fatalf("TestCheckOutgoingConnections: unreachable address marked as active")
		}
	}

	// The active connections are gone from the adapter, so they get replaced,
	// but the recently failed address isn't retried.
	netAdapter.reset()
	connectionManager.checkOutgoingConnections(connectionSet{})
	for _, address := range netAdapter.dialedAddresses() {
		if address == "10.0.0.3:18018" {
			t.Fatalf("TestCheckOutgoingConnections: recently failed address was dialed again")
		}
	}
}

func TestCheckRequestedConnections(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TargetOutboundPeers = 0
	cfg.AddPeers = []string{"10.0.0.1:18018", "10.0.0.2:18018"}

	connectionManager, netAdapter := newTestConnectionManager(t, cfg)
	netAdapter.unreachable["10.0.0.2:18018"] = true

	connectionManager.checkRequestedConnections(connectionSet{})

	if _, ok := connectionManager.activeRequested["10.0.0.1:18018"]; !ok {
		t.Fatalf("TestCheckRequestedConnections: reachable request wasn't moved to active")
	}
	failed, ok := connectionManager.pendingRequested["10.0.0.2:18018"]
	if !ok {
		t.Fatalf("TestCheckRequestedConnections: permanent request was dropped after a failure")
	}
	if failed.retryDuration != minRetryDuration {
		t.Fatalf("TestCheckRequestedConnections: expected retry in %s, got %s", minRetryDuration, failed.retryDuration)
	}
	if !failed.nextAttempt.After(time.Now()) {
		t.Fatalf("TestCheckRequestedConnections: next attempt should be in the future")
	}

	// Neither request is due while the active one stays connected.
	netAdapter.reset()
	connectionManager.checkRequestedConnections(connectionSet{"10.0.0.1:18018": nil})
	if dialed := netAdapter.dialedAddresses(); len(dialed) != 0 {
		t.Fatalf("TestCheckRequestedConnections: unexpected dials: %v", dialed)
	}

	// Once it disconnects it's requested again.
	connectionManager.checkRequestedConnections(connectionSet{})
	_, isPending := connectionManager.pendingRequested["10.0.0.1:18018"]
	dialed := netAdapter.dialedAddresses()
	isRedialed := len(dialed) == 1 && dialed[0] == "10.0.0.1:18018"
	if !isPending && !isRedialed {
		t.Fatalf("TestCheckRequestedConnections: disconnected permanent request was dropped")
	}
}

func TestAddConnectionRequest(t *testing.T) {
	cfg := config.DefaultConfig()
	connectionManager, _ := newTestConnectionManager(t, cfg)

	connectionManager.addConnectionRequest("10.0.0.9:18018", false)
	if request, ok := connectionManager.pendingRequested["10.0.0.9:18018"]; !ok || request.isPermanent {
		t.Fatalf("TestAddConnectionRequest: expected a one-try pending request, got %s",
			spew.Sdump(connectionManager.pendingRequested))
	}
}
