package dispatch

import (
	"runtime/debug"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/app/protocol/protocolerrors"
	"github.com/marabunet/marabud/domain"
	"github.com/pkg/errors"
)

type handlerFunc func(d *Dispatcher, message appmessage.Message) ([]appmessage.Message, error)

// handlers holds one handler per message command that can reach the
// dispatcher.
var handlers = map[appmessage.MessageCommand]handlerFunc{
	appmessage.CmdHello:       handleHello,
	appmessage.CmdError:       handleError,
	appmessage.CmdGetPeers:    handleGetPeers,
	appmessage.CmdPeers:       handlePeers,
	appmessage.CmdGetObject:   handleGetObject,
	appmessage.CmdIHaveObject: handleIHaveObject,
	appmessage.CmdObject:      handleObject,
	appmessage.CmdGetMempool:  handleGetMempool,
	appmessage.CmdMempool:     handleMempool,
	appmessage.CmdGetChainTip: handleGetChainTip,
	appmessage.CmdChainTip:    handleChainTip,
}

// Dispatcher hands messages that cleared the handshake to the node's
// collaborators and turns the results into replies for the sending peer.
// It never talks to other peers.
type Dispatcher struct {
	domain  domain.Domain
	address string
}

// New returns a Dispatcher for the connection with the peer at address.
func New(domain domain.Domain, address string) *Dispatcher {
	return &Dispatcher{
		domain:  domain,
		address: address,
	}
}

// Dispatch handles message and returns the messages to send back, in order.
//
// A collaborator rejection is returned as a recoverable ProtocolError with
// the collaborator's error code. Any other collaborator failure, including a
// panic, is returned as a fatal INTERNAL_ERROR.
func (d *Dispatcher) Dispatch(message appmessage.Message) (replies []appmessage.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from a panic while dispatching %s from %s: %v\n%s",
				message.Command(), d.address, r, debug.Stack())
			replies = nil
			err = protocolerrors.Errorf(true, appmessage.ErrorCodeInternalError,
				"internal error while handling %s", message.Command())
		}
	}()

	handler, ok := handlers[message.Command()]
	if !ok {
		return nil, protocolerrors.Errorf(true, appmessage.ErrorCodeInternalError,
			"no handler for %s", message.Command())
	}
	replies, err = handler(d, message)
	if err != nil {
		return nil, d.translateError(message.Command(), err)
	}
	return replies, nil
}

func (d *Dispatcher) translateError(command appmessage.MessageCommand, err error) error {
	if _, ok := protocolerrors.As(err); ok {
		return err
	}
	objectErr := &domain.ObjectError{}
	if errors.As(err, &objectErr) && objectErr.Code.IsValid() {
		return protocolerrors.New(false, objectErr.Code, objectErr.Description)
	}
	log.Errorf("Unexpected error while handling %s from %s: %+v", command, d.address, err)
	return protocolerrors.Errorf(true, appmessage.ErrorCodeInternalError,
		"internal error while handling %s", command)
}

// isObjectKnown asks the object store whether it holds objectID.
func (d *Dispatcher) isObjectKnown(objectID appmessage.ObjectID) (bool, error) {
	_, err := d.domain.ObjectStore().Get(objectID)
	if err == nil {
		return true, nil
	}
	objectErr := &domain.ObjectError{}
	if errors.As(err, &objectErr) && objectErr.Code == appmessage.ErrorCodeUnknownObject {
		return false, nil
	}
	return false, err
}
