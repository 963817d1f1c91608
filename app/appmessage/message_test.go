package appmessage

import (
	"testing"
)

// TestCommands tests that every message constructor reports its own command.
func TestCommands(t *testing.T) {
	tests := []struct {
		message Message
		command MessageCommand
	}{
		{NewMsgHello(ProtocolVersion, "test"), CmdHello},
		{NewMsgError(ErrorCodeInvalidFormat, "bad"), CmdError},
		{NewMsgGetPeers(), CmdGetPeers},
		{NewMsgPeers(nil), CmdPeers},
		{NewMsgGetObject("00"), CmdGetObject},
		{NewMsgIHaveObject("00"), CmdIHaveObject},
		{NewMsgObject(RawObject(`{}`)), CmdObject},
		{NewMsgGetMempool(), CmdGetMempool},
		{NewMsgMempool(nil), CmdMempool},
		{NewMsgGetChainTip(), CmdGetChainTip},
		{NewMsgChainTip("00"), CmdChainTip},
	}
	if len(tests) != len(Commands()) {
		t.Fatalf("TestCommands: expected a case per command, got %d cases and %d commands",
			len(tests), len(Commands()))
	}
	for _, test := range tests {
		if cmd := test.message.Command(); cmd != test.command {
			t.Errorf("TestCommands: wrong command - got %v want %v", cmd, test.command)
		}
		if !test.command.IsKnown() {
			t.Errorf("TestCommands: %s is not known", test.command)
		}
	}
	if MessageCommand("ping").IsKnown() {
		t.Errorf("TestCommands: ping should not be a known command")
	}
}

func TestNewMsgPeersCopies(t *testing.T) {
	peers := []string{"127.0.0.1:18018"}
	msg := NewMsgPeers(peers)
	peers[0] = "changed:1"
	if msg.Peers[0] != "127.0.0.1:18018" {
		t.Fatalf("TestNewMsgPeersCopies: message shares its slice with the caller")
	}
	if empty := NewMsgPeers(nil); empty.Peers == nil {
		t.Fatalf("TestNewMsgPeersCopies: empty peers must not be nil")
	}
	if empty := NewMsgMempool(nil); empty.TxIDs == nil {
		t.Fatalf("TestNewMsgPeersCopies: empty txids must not be nil")
	}
}

func TestErrorCodes(t *testing.T) {
	if len(ErrorCodes) != 12 {
		t.Fatalf("TestErrorCodes: expected 12 error codes, got %d", len(ErrorCodes))
	}
	seen := make(map[ErrorCode]struct{})
	for _, code := range ErrorCodes {
		if !code.IsValid() {
			t.Errorf("TestErrorCodes: %s is not valid", code)
		}
		if _, ok := seen[code]; ok {
			t.Errorf("TestErrorCodes: duplicate code %s", code)
		}
		seen[code] = struct{}{}
	}
	if ErrorCode("NOT_A_CODE").IsValid() {
		t.Errorf("TestErrorCodes: NOT_A_CODE should be invalid")
	}
}
