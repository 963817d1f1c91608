package mempool

import (
	"sync"

	"github.com/marabunet/marabud/app/appmessage"
)

// Mempool is an in-memory, insertion-ordered set of transaction IDs.
type Mempool struct {
	txIDs []appmessage.ObjectID
	known map[appmessage.ObjectID]struct{}
	lock  sync.RWMutex
}

// New returns an empty Mempool.
func New() *Mempool {
	return &Mempool{
		known: make(map[appmessage.ObjectID]struct{}),
	}
}

// Add inserts txID if it isn't already present, and returns whether it was
// inserted.
func (mp *Mempool) Add(txID appmessage.ObjectID) bool {
	mp.lock.Lock()
	defer mp.lock.Unlock()

	if _, ok := mp.known[txID]; ok {
		return false
	}
	mp.known[txID] = struct{}{}
	mp.txIDs = append(mp.txIDs, txID)
	return true
}

// ListTxIDs returns the transaction IDs in insertion order.
func (mp *Mempool) ListTxIDs() []appmessage.ObjectID {
	mp.lock.RLock()
	defer mp.lock.RUnlock()

	txIDs := make([]appmessage.ObjectID, len(mp.txIDs))
	copy(txIDs, mp.txIDs)
	return txIDs
}
