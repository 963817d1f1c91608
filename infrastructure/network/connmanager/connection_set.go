package connmanager

import (
	"github.com/marabunet/marabud/infrastructure/network/netadapter"
)

type connectionSet map[string]*netadapter.NetConnection

func (cs connectionSet) remove(address string) {
	delete(cs, address)
}

func (cs connectionSet) get(address string) (*netadapter.NetConnection, bool) {
	connection, ok := cs[address]
	return connection, ok
}

func convertToSet(connections []*netadapter.NetConnection) connectionSet {
	connSet := make(connectionSet, len(connections))
	for _, connection := range connections {
		connSet[connection.Address()] = connection
	}
	return connSet
}
