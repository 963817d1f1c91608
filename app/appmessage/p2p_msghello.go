package appmessage

// MsgHello implements the Message interface and represents a hello message.
// It must be the first message a peer sends on a connection.
type MsgHello struct {
	Version string `json:"version"`
	Agent   string `json:"agent"`
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgHello) Command() MessageCommand {
	return CmdHello
}

// NewMsgHello returns a new hello message that conforms to the Message
// interface.
func NewMsgHello(version, agent string) *MsgHello {
	return &MsgHello{
		Version: version,
		Agent:   agent,
	}
}
