package chaintip

import (
	"sync"

	"github.com/marabunet/marabud/app/appmessage"
)

// ChainTip remembers the most recently accepted block.
type ChainTip struct {
	blockID appmessage.ObjectID
	isSet   bool
	lock    sync.RWMutex
}

// New returns a ChainTip with no known tip.
func New() *ChainTip {
	return &ChainTip{}
}

// Set makes blockID the current tip.
func (ct *ChainTip) Set(blockID appmessage.ObjectID) {
	ct.lock.Lock()
	defer ct.lock.Unlock()

	ct.blockID = blockID
	ct.isSet = true
}

// Current returns the current tip, and false if none is known.
func (ct *ChainTip) Current() (appmessage.ObjectID, bool) {
	ct.lock.RLock()
	defer ct.lock.RUnlock()

	return ct.blockID, ct.isSet
}
