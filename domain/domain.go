package domain

import (
	"fmt"

	"github.com/marabunet/marabud/app/appmessage"
)

// PeerTable is the node's set of known peer addresses.
type PeerTable interface {
	// List returns the known peer addresses.
	List() []string

	// Add records a peer address of the form host:port.
	Add(address string) error
}

// ObjectStore holds content-addressed transactions and blocks.
type ObjectStore interface {
	// Get returns the canonical encoding of the object with the given ID, or
	// an *ObjectError with ErrorCodeUnknownObject if there's no such object.
	Get(objectID appmessage.ObjectID) (appmessage.RawObject, error)

	// Put validates and stores object and returns its ID. Rejections are
	// reported as an *ObjectError carrying the matching error code.
	Put(object appmessage.RawObject) (appmessage.ObjectID, error)
}

// Mempool tracks transactions not yet confirmed in a block.
type Mempool interface {
	ListTxIDs() []appmessage.ObjectID
}

// ChainTip tracks the block at the tip of the longest known chain.
type ChainTip interface {
	// Current returns the tip's block ID, and false if no tip is known yet.
	Current() (appmessage.ObjectID, bool)
}

// Domain provides a reference to the node logic collaborators the protocol
// layer talks to. Implementations synchronize their own state.
type Domain interface {
	PeerTable() PeerTable
	ObjectStore() ObjectStore
	Mempool() Mempool
	ChainTip() ChainTip
}

type domain struct {
	peerTable   PeerTable
	objectStore ObjectStore
	mempool     Mempool
	chainTip    ChainTip
}

// New returns a Domain over the given collaborators.
func New(peerTable PeerTable, objectStore ObjectStore, mempool Mempool, chainTip ChainTip) Domain {
	return &domain{
		peerTable:   peerTable,
		objectStore: objectStore,
		mempool:     mempool,
		chainTip:    chainTip,
	}
}

func (d *domain) PeerTable() PeerTable {
	return d.peerTable
}

func (d *domain) ObjectStore() ObjectStore {
	return d.objectStore
}

func (d *domain) Mempool() Mempool {
	return d.mempool
}

func (d *domain) ChainTip() ChainTip {
	return d.chainTip
}

// ObjectError is a semantic rejection reported by a collaborator. Its Code
// is relayed to the peer as is.
type ObjectError struct {
	Code        appmessage.ErrorCode
	Description string
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewObjectError returns an *ObjectError with a formatted description.
func NewObjectError(code appmessage.ErrorCode, format string, args ...interface{}) *ObjectError {
	return &ObjectError{
		Code:        code,
		Description: fmt.Sprintf(format, args...),
	}
}
