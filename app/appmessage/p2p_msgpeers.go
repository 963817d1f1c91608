package appmessage

// MsgGetPeers implements the Message interface and requests the remote
// peer's known peer addresses.
//
// This message has no payload.
type MsgGetPeers struct{}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgGetPeers) Command() MessageCommand {
	return CmdGetPeers
}

// NewMsgGetPeers returns a new getpeers message.
func NewMsgGetPeers() *MsgGetPeers {
	return &MsgGetPeers{}
}

// MsgPeers implements the Message interface and carries a list of peer
// addresses of the form host:port.
type MsgPeers struct {
	Peers []string `json:"peers"`
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgPeers) Command() MessageCommand {
	return CmdPeers
}

// NewMsgPeers returns a new peers message holding a copy of peers.
func NewMsgPeers(peers []string) *MsgPeers {
	msgPeers := make([]string, len(peers))
	copy(msgPeers, peers)
	return &MsgPeers{Peers: msgPeers}
}
