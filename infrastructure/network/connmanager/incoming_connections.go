package connmanager

// checkIncomingConnections makes sure there's no more than maxIncoming
// incoming connections. If there are, it disconnects enough of them to get
// back to that number.
func (c *ConnectionManager) checkIncomingConnections(incomingConnectionSet connectionSet) {
	if c.maxIncoming <= 0 || len(incomingConnectionSet) <= c.maxIncoming {
		return
	}

	numConnectionsOverMax := len(incomingConnectionSet) - c.maxIncoming
	for address, connection := range incomingConnectionSet {
		if connection.IsOutbound() {
			continue
		}
		log.Infof("Disconnecting %s: over the maximum of %d inbound peers", address, c.maxIncoming)
		connection.Disconnect()

		numConnectionsOverMax--
		if numConnectionsOverMax == 0 {
			break
		}
	}
}
