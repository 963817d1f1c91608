package jsonwire

import (
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/marabunet/marabud/app/appmessage"
	"github.com/pkg/errors"
)

func TestValidateAcceptsEveryVariant(t *testing.T) {
	tests := []struct {
		frame    string
		expected appmessage.Message
	}{
		{`{"type":"hello","version":"0.10.0","agent":"test"}`, appmessage.NewMsgHello("0.10.0", "test")},
		{`{"type":"error","name":"UNKNOWN_OBJECT","description":"no such object"}`,
			appmessage.NewMsgError(appmessage.ErrorCodeUnknownObject, "no such object")},
		{`{"type":"getpeers"}`, appmessage.NewMsgGetPeers()},
		{`{"type":"peers","peers":["127.0.0.1:18018","node.example.org:18018"]}`,
			appmessage.NewMsgPeers([]string{"127.0.0.1:18018", "node.example.org:18018"})},
		{`{"type":"peers","peers":[]}`, appmessage.NewMsgPeers(nil)},
		{`{"type":"getobject","objectid":"ab12"}`, appmessage.NewMsgGetObject("ab12")},
		{`{"type":"ihaveobject","objectid":"ab12"}`, appmessage.NewMsgIHaveObject("ab12")},
		{`{"type":"object","object":{"type":"transaction","outputs":[{"pubkey":"aa","value":10}],"height":1}}`,
			appmessage.NewMsgObject(appmessage.RawObject(`{"height":1,"outputs":[{"pubkey":"aa","value":10}],"type":"transaction"}`))},
		{`{"type":"getmempool"}`, appmessage.NewMsgGetMempool()},
		{`{"type":"mempool","txids":["aa","bb"]}`, appmessage.NewMsgMempool([]appmessage.ObjectID{"aa", "bb"})},
		{`{"type":"getchaintip"}`, appmessage.NewMsgGetChainTip()},
		{`{"type":"chaintip","blockid":"cc"}`, appmessage.NewMsgChainTip("cc")},
	}

	seen := make(map[appmessage.MessageCommand]struct{})
	for _, test := range tests {
		message, err := DecodeMessage([]byte(test.frame))
		if err != nil {
			t.Fatalf("TestValidateAcceptsEveryVariant: %s: %+v", test.frame, err)
		}
		if !reflect.DeepEqual(message, test.expected) {
			t.Fatalf("TestValidateAcceptsEveryVariant: %s: got %s, want %s",
				test.frame, spew.Sdump(message), spew.Sdump(test.expected))
		}
		seen[message.Command()] = struct{}{}

		// Every declared field survives re-encoding unchanged.
		encoded, err := Encode(message)
		if err != nil {
			t.Fatalf("TestValidateAcceptsEveryVariant: Encode: %+v", err)
		}
		canonicalInput, err := CanonicalizeBytes([]byte(test.frame))
		if err != nil {
			t.Fatalf("TestValidateAcceptsEveryVariant: CanonicalizeBytes: %+v", err)
		}
		if string(encoded) != string(canonicalInput)+"\n" {
			t.Fatalf("TestValidateAcceptsEveryVariant: round trip of %s gave %s", canonicalInput, encoded)
		}
	}
	if len(seen) != len(appmessage.Commands()) {
		t.Fatalf("TestValidateAcceptsEveryVariant: covered %d of %d variants", len(seen), len(appmessage.Commands()))
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		frame string
		kind  ValidationErrorKind
		field string
	}{
		{`{}`, UnknownType, "type"},
		{`{"type":5}`, UnknownType, "type"},
		{`{"type":"ping"}`, UnknownType, "type"},
		{`{"type":"hello","version":"0.10.0"}`, SchemaMismatch, "agent"},
		{`{"type":"hello","version":10,"agent":"a"}`, SchemaMismatch, "version"},
		{`{"type":"hello","version":"0.10.0","agent":"a","extra":1}`, SchemaMismatch, "extra"},
		{`{"type":"error","name":"NOT_A_CODE","description":"d"}`, SchemaMismatch, "name"},
		{`{"type":"error","name":"INVALID_FORMAT"}`, SchemaMismatch, "description"},
		{`{"type":"getpeers","peers":[]}`, SchemaMismatch, "peers"},
		{`{"type":"getmempool","x":null}`, SchemaMismatch, "x"},
		{`{"type":"getchaintip","blockid":"a"}`, SchemaMismatch, "blockid"},
		{`{"type":"peers","peers":"127.0.0.1:18018"}`, SchemaMismatch, "peers"},
		{`{"type":"peers","peers":["a:1",2]}`, SchemaMismatch, "peers"},
		{`{"type":"getobject"}`, SchemaMismatch, "objectid"},
		{`{"type":"ihaveobject","objectid":null}`, SchemaMismatch, "objectid"},
		{`{"type":"object","object":null}`, SchemaMismatch, "object"},
		{`{"type":"object","object":[1]}`, SchemaMismatch, "object"},
		{`{"type":"object"}`, SchemaMismatch, "object"},
		{`{"type":"mempool","txids":[true]}`, SchemaMismatch, "txids"},
		{`{"type":"chaintip","blockid":["a"]}`, SchemaMismatch, "blockid"},
	}
	for _, test := range tests {
		message, err := DecodeMessage([]byte(test.frame))
		if message != nil {
			t.Errorf("TestValidateRejects: %s: expected no message, got %s", test.frame, spew.Sdump(message))
		}
		validationErr := &ValidationError{}
		if !errors.As(err, &validationErr) {
			t.Errorf("TestValidateRejects: %s: expected a *ValidationError, got %v", test.frame, err)
			continue
		}
		if validationErr.Kind != test.kind || validationErr.Field != test.field {
			t.Errorf("TestValidateRejects: %s: got %s on `%s`, want %s on `%s`",
				test.frame, validationErr.Kind, validationErr.Field, test.kind, test.field)
		}
	}
}

func TestDecodeMessageParseErrors(t *testing.T) {
	for _, frame := range []string{`{not json`, `[{"type":"getpeers"}]`} {
		_, err := DecodeMessage([]byte(frame))
		parseErr := &ParseError{}
		if !errors.As(err, &parseErr) {
			t.Errorf("TestDecodeMessageParseErrors: %s: expected a *ParseError, got %v", frame, err)
		}
	}
}

func TestEncode(t *testing.T) {
	frame, err := Encode(appmessage.NewMsgError(appmessage.ErrorCodeInvalidHandshake, "say hello first"))
	if err != nil {
		t.Fatalf("TestEncode: %+v", err)
	}
	expected := `{"description":"say hello first","name":"INVALID_HANDSHAKE","type":"error"}` + "\n"
	if string(frame) != expected {
		t.Fatalf("TestEncode: got %s, want %s", frame, expected)
	}
}
