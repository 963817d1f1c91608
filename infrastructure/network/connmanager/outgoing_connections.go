package connmanager

import (
	"math/rand"
	"time"
)

// checkOutgoingConnections goes over all activeOutgoing and makes sure they
// are still active. Then it connects to addresses from the peer table until
// there are targetOutgoing active connections.
func (c *ConnectionManager) checkOutgoingConnections(connSet connectionSet) {
	for address := range c.activeOutgoing {
		_, ok := connSet.get(address)
		if ok { // connection is still connected
			connSet.remove(address)
			continue
		}

		// if connection is dead - remove from list of active ones
		delete(c.activeOutgoing, address)
	}

	liveConnections := len(c.activeOutgoing)
	if liveConnections >= c.targetOutgoing {
		return
	}

	log.Debugf("Have got %d outgoing connections out of target %d, adding %d more",
		liveConnections, c.targetOutgoing, c.targetOutgoing-liveConnections)

	for _, address := range c.outgoingCandidates(connSet) {
		if len(c.activeOutgoing) >= c.targetOutgoing {
			return
		}

		err := c.initiateConnection(address)
		if err != nil {
			log.Infof("Couldn't connect to %s: %s", address, err)
			c.failedOutgoing[address] = time.Now()
			continue
		}
		delete(c.failedOutgoing, address)
		c.activeOutgoing[address] = struct{}{}
	}
}

// outgoingCandidates returns the peer table's addresses in random order,
// leaving out our own addresses, addresses we're already connected to, and
// addresses that recently failed.
func (c *ConnectionManager) outgoingCandidates(connSet connectionSet) []string {
	now := time.Now()
	candidates := make([]string, 0)
	for _, address := range c.peerTable.List() {
		if _, ok := c.ownAddresses[address]; ok {
			continue
		}
		if _, ok := connSet.get(address); ok {
			continue
		}
		if _, ok := c.activeOutgoing[address]; ok {
			continue
		}
		if c.isRequested(address) {
			continue
		}
		if failedAt, ok := c.failedOutgoing[address]; ok && now.Sub(failedAt) < maxRetryDuration {
			continue
		}
		candidates = append(candidates, address)
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates
}

func (c *ConnectionManager) isRequested(address string) bool {
	c.connectionRequestsLock.Lock()
	defer c.connectionRequestsLock.Unlock()

	_, isActive := c.activeRequested[address]
	_, isPending := c.pendingRequested[address]
	return isActive || isPending
}
