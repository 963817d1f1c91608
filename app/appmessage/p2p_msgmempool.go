package appmessage

// MsgGetMempool implements the Message interface and requests the txids in
// the remote peer's mempool.
//
// This message has no payload.
type MsgGetMempool struct{}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgGetMempool) Command() MessageCommand {
	return CmdGetMempool
}

// NewMsgGetMempool returns a new getmempool message.
func NewMsgGetMempool() *MsgGetMempool {
	return &MsgGetMempool{}
}

// MsgMempool implements the Message interface and lists the txids in the
// sender's mempool.
type MsgMempool struct {
	TxIDs []ObjectID `json:"txids"`
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgMempool) Command() MessageCommand {
	return CmdMempool
}

// NewMsgMempool returns a new mempool message holding a copy of txIDs.
func NewMsgMempool(txIDs []ObjectID) *MsgMempool {
	msgTxIDs := make([]ObjectID, len(txIDs))
	copy(msgTxIDs, txIDs)
	return &MsgMempool{TxIDs: msgTxIDs}
}
