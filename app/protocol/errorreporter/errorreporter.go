package errorreporter

import (
	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/app/protocol/protocolerrors"
)

// Connection is the part of a peer connection the reporter writes to.
type Connection interface {
	Enqueue(message appmessage.Message) error
	Disconnect()
	Address() string
}

// Report sends err to the peer as an `error` message. Errors that aren't
// ProtocolErrors, or carry an unknown code, are reported as INTERNAL_ERROR. The connection is
// disconnected after fatal errors and when the message can't be queued.
// Report returns whether the connection was disconnected.
func Report(connection Connection, err error) bool {
	protocolErr, ok := protocolerrors.As(err)
	if ok && !protocolErr.Code.IsValid() {
		ok = false
	}
	if !ok {
		log.Errorf("Unexpected error on connection %s: %+v", connection.Address(), err)
		protocolErr = &protocolerrors.ProtocolError{
			Code:             appmessage.ErrorCodeInternalError,
			ShouldDisconnect: true,
			Cause:            err,
		}
	}

	msgError := appmessage.NewMsgError(protocolErr.Code, protocolErr.Description())
	if !ok {
		msgError.Description = "internal error"
	}

	isFatal := protocolErr.IsFatal()
	if isFatal {
		log.Infof("Disconnecting %s: %s: %s", connection.Address(), protocolErr.Code, err)
	} else {
		log.Debugf("Reporting %s to %s: %s", protocolErr.Code, connection.Address(), err)
	}

	enqueueErr := connection.Enqueue(msgError)
	if enqueueErr != nil {
		log.Warnf("Failed to send %s to %s: %s", protocolErr.Code, connection.Address(), enqueueErr)
		connection.Disconnect()
		return true
	}
	if isFatal {
		connection.Disconnect()
	}
	return isFatal
}
