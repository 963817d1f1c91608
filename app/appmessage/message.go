package appmessage

import (
	"encoding/json"
	"sort"
)

// ProtocolVersion is the protocol version this node speaks and advertises in
// its hello message.
const ProtocolVersion = "0.10.0"

// MessageCommand is the value of the `type` field that discriminates
// messages on the wire.
type MessageCommand string

func (cmd MessageCommand) String() string {
	return string(cmd)
}

// Commands used as the `type` discriminator of protocol messages.
const (
	CmdHello       MessageCommand = "hello"
	CmdError       MessageCommand = "error"
	CmdGetPeers    MessageCommand = "getpeers"
	CmdPeers       MessageCommand = "peers"
	CmdGetObject   MessageCommand = "getobject"
	CmdIHaveObject MessageCommand = "ihaveobject"
	CmdObject      MessageCommand = "object"
	CmdGetMempool  MessageCommand = "getmempool"
	CmdMempool     MessageCommand = "mempool"
	CmdGetChainTip MessageCommand = "getchaintip"
	CmdChainTip    MessageCommand = "chaintip"
)

var knownCommands = map[MessageCommand]struct{}{
	CmdHello:       {},
	CmdError:       {},
	CmdGetPeers:    {},
	CmdPeers:       {},
	CmdGetObject:   {},
	CmdIHaveObject: {},
	CmdObject:      {},
	CmdGetMempool:  {},
	CmdMempool:     {},
	CmdGetChainTip: {},
	CmdChainTip:    {},
}

// IsKnown returns whether cmd is one of the protocol's message types.
func (cmd MessageCommand) IsKnown() bool {
	_, ok := knownCommands[cmd]
	return ok
}

// Commands returns all known message commands, sorted.
func Commands() []MessageCommand {
	commands := make([]MessageCommand, 0, len(knownCommands))
	for cmd := range knownCommands {
		commands = append(commands, cmd)
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i] < commands[j] })
	return commands
}

// Message is implemented by every protocol message variant. The JSON encoding
// of a Message holds its payload fields; the `type` discriminator is added by
// the wire encoder from Command.
type Message interface {
	Command() MessageCommand
}

// ObjectID identifies a content-addressed object (transaction or block) by
// the hex encoding of its canonical hash.
type ObjectID string

func (id ObjectID) String() string {
	return string(id)
}

// RawObject is the canonical JSON encoding of an object carried by an
// `object` message. Its inner schema belongs to the object store.
type RawObject = json.RawMessage
