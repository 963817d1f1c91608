package peertable

import (
	"sync"

	"github.com/marabunet/marabud/util/network"
	"github.com/pkg/errors"
)

// DefaultMaxPeers bounds how many addresses a PeerTable keeps.
const DefaultMaxPeers = 4096

// ErrTableFull is returned by Add once the table holds its maximum number of
// addresses.
var ErrTableFull = errors.New("peer table is full")

// PeerTable is an in-memory, insertion-ordered set of peer addresses. It's
// safe for concurrent use.
type PeerTable struct {
	maxPeers int

	addresses []string
	known     map[string]struct{}
	lock      sync.RWMutex
}

// New returns a PeerTable seeded with the given addresses. Invalid seeds are
// returned as an error.
func New(maxPeers int, seeds ...string) (*PeerTable, error) {
	if maxPeers <= 0 {
		maxPeers = DefaultMaxPeers
	}
	table := &PeerTable{
		maxPeers: maxPeers,
		known:    make(map[string]struct{}),
	}
	for _, seed := range seeds {
		err := table.Add(seed)
		if err != nil {
			return nil, err
		}
	}
	return table, nil
}

// List returns a copy of the known addresses in insertion order.
func (pt *PeerTable) List() []string {
	pt.lock.RLock()
	defer pt.lock.RUnlock()

	addresses := make([]string, len(pt.addresses))
	copy(addresses, pt.addresses)
	return addresses
}

// Add records address if it's a valid host:port and not already known.
func (pt *PeerTable) Add(address string) error {
	err := network.ValidatePeerAddress(address)
	if err != nil {
		return err
	}

	pt.lock.Lock()
	defer pt.lock.Unlock()

	if _, ok := pt.known[address]; ok {
		return nil
	}
	if len(pt.addresses) >= pt.maxPeers {
		return errors.Wrapf(ErrTableFull, "cannot add %s", address)
	}
	pt.known[address] = struct{}{}
	pt.addresses = append(pt.addresses, address)
	log.Debugf("Added peer address %s", address)
	return nil
}

// Count returns the number of known addresses.
func (pt *PeerTable) Count() int {
	pt.lock.RLock()
	defer pt.lock.RUnlock()

	return len(pt.addresses)
}
