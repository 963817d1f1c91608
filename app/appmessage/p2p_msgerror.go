package appmessage

// MsgError implements the Message interface and reports a protocol error to
// the remote peer.
type MsgError struct {
	Name        ErrorCode `json:"name"`
	Description string    `json:"description"`
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgError) Command() MessageCommand {
	return CmdError
}

// NewMsgError returns a new error message that conforms to the Message
// interface.
func NewMsgError(name ErrorCode, description string) *MsgError {
	return &MsgError{
		Name:        name,
		Description: description,
	}
}
