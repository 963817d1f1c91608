package protocolerrors

import (
	"testing"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/pkg/errors"
)

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err   error
		fatal bool
	}{
		{New(false, appmessage.ErrorCodeInvalidFormat, "bad"), false},
		{New(true, appmessage.ErrorCodeInvalidFormat, "too large"), true},
		{New(false, appmessage.ErrorCodeInvalidHandshake, "no hello"), true},
		{Errorf(false, appmessage.ErrorCodeInternalError, "boom %d", 1), true},
		{New(false, appmessage.ErrorCodeUnknownObject, "missing"), false},
	}
	for i, test := range tests {
		protocolErr, ok := As(test.err)
		if !ok {
			t.Fatalf("TestIsFatal: case %d: not a ProtocolError", i)
		}
		if protocolErr.IsFatal() != test.fatal {
			t.Errorf("TestIsFatal: case %d (%s): expected fatal=%t", i, protocolErr.Code, test.fatal)
		}
	}
}

func TestWrapKeepsCodeAndDescription(t *testing.T) {
	cause := errors.New("unparsable object")
	err := errors.Wrap(Wrapf(false, appmessage.ErrorCodeInvalidFormat, cause, "object from %s", "peer"), "dispatch")

	protocolErr, ok := As(err)
	if !ok {
		t.Fatalf("TestWrapKeepsCodeAndDescription: ProtocolError not found in chain")
	}
	if protocolErr.Code != appmessage.ErrorCodeInvalidFormat {
		t.Fatalf("TestWrapKeepsCodeAndDescription: unexpected code %s", protocolErr.Code)
	}
	if protocolErr.Description() != "unparsable object" {
		t.Fatalf("TestWrapKeepsCodeAndDescription: unexpected description %q", protocolErr.Description())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("TestWrapKeepsCodeAndDescription: cause lost")
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Fatalf("TestWrapKeepsCodeAndDescription: plain error reported as ProtocolError")
	}
}
