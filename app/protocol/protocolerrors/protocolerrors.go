package protocolerrors

import (
	"github.com/marabunet/marabud/app/appmessage"
	"github.com/pkg/errors"
)

// ProtocolError is an error that signifies a violation of the peer-to-peer
// protocol. Code is reported to the peer in an `error` message.
type ProtocolError struct {
	Code             appmessage.ErrorCode
	ShouldDisconnect bool
	Cause            error
}

func (e *ProtocolError) Error() string {
	return e.Cause.Error()
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// IsFatal returns whether the connection must be closed after reporting e.
// INVALID_HANDSHAKE and INTERNAL_ERROR are always fatal.
func (e *ProtocolError) IsFatal() bool {
	return e.ShouldDisconnect ||
		e.Code == appmessage.ErrorCodeInvalidHandshake ||
		e.Code == appmessage.ErrorCodeInternalError
}

// Description returns the human-readable text sent along with Code. It omits
// wrapping context that only matters to local logs.
func (e *ProtocolError) Description() string {
	return errors.Cause(e.Cause).Error()
}

// Errorf formats according to a format specifier and returns the string
// as a value that satisfies error.
// Errorf also records the stack trace at the point it was called.
func Errorf(shouldDisconnect bool, code appmessage.ErrorCode, format string, args ...interface{}) error {
	return &ProtocolError{
		Code:             code,
		ShouldDisconnect: shouldDisconnect,
		Cause:            errors.Errorf(format, args...),
	}
}

// New returns an error with the supplied message.
// New also records the stack trace at the point it was called.
func New(shouldDisconnect bool, code appmessage.ErrorCode, message string) error {
	return &ProtocolError{
		Code:             code,
		ShouldDisconnect: shouldDisconnect,
		Cause:            errors.New(message),
	}
}

// Wrap returns an error annotating err with a stack trace
// at the point Wrap is called, and the supplied message.
func Wrap(shouldDisconnect bool, code appmessage.ErrorCode, err error, message string) error {
	return &ProtocolError{
		Code:             code,
		ShouldDisconnect: shouldDisconnect,
		Cause:            errors.Wrap(err, message),
	}
}

// Wrapf returns an error annotating err with a stack trace
// at the point Wrapf is called, and the format specifier.
func Wrapf(shouldDisconnect bool, code appmessage.ErrorCode, err error, format string, args ...interface{}) error {
	return &ProtocolError{
		Code:             code,
		ShouldDisconnect: shouldDisconnect,
		Cause:            errors.Wrapf(err, format, args...),
	}
}

// As returns the *ProtocolError in err's chain, if any.
func As(err error) (*ProtocolError, bool) {
	protocolErr := &ProtocolError{}
	if errors.As(err, &protocolErr) {
		return protocolErr, true
	}
	return nil, false
}
