package appmessage

// MsgGetChainTip implements the Message interface and requests the remote
// peer's current chain tip.
//
// This message has no payload.
type MsgGetChainTip struct{}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgGetChainTip) Command() MessageCommand {
	return CmdGetChainTip
}

// NewMsgGetChainTip returns a new getchaintip message.
func NewMsgGetChainTip() *MsgGetChainTip {
	return &MsgGetChainTip{}
}

// MsgChainTip implements the Message interface and names the block at the
// tip of the sender's longest chain.
type MsgChainTip struct {
	BlockID ObjectID `json:"blockid"`
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgChainTip) Command() MessageCommand {
	return CmdChainTip
}

// NewMsgChainTip returns a new chaintip message.
func NewMsgChainTip(blockID ObjectID) *MsgChainTip {
	return &MsgChainTip{BlockID: blockID}
}
