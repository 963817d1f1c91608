package appmessage

// MsgGetObject implements the Message interface and requests the object
// with the given ID.
type MsgGetObject struct {
	ObjectID ObjectID `json:"objectid"`
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgGetObject) Command() MessageCommand {
	return CmdGetObject
}

// NewMsgGetObject returns a new getobject message.
func NewMsgGetObject(objectID ObjectID) *MsgGetObject {
	return &MsgGetObject{ObjectID: objectID}
}

// MsgIHaveObject implements the Message interface and announces that the
// sender holds the object with the given ID.
type MsgIHaveObject struct {
	ObjectID ObjectID `json:"objectid"`
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgIHaveObject) Command() MessageCommand {
	return CmdIHaveObject
}

// NewMsgIHaveObject returns a new ihaveobject message.
func NewMsgIHaveObject(objectID ObjectID) *MsgIHaveObject {
	return &MsgIHaveObject{ObjectID: objectID}
}

// MsgObject implements the Message interface and carries a transaction or
// block in its canonical JSON form.
type MsgObject struct {
	Object RawObject `json:"object"`
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgObject) Command() MessageCommand {
	return CmdObject
}

// NewMsgObject returns a new object message.
func NewMsgObject(object RawObject) *MsgObject {
	return &MsgObject{Object: object}
}
