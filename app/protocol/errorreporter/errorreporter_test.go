package errorreporter

import (
	"testing"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/app/protocol/protocolerrors"
	"github.com/marabunet/marabud/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

type fakeConnection struct {
	sent         []appmessage.Message
	enqueueErr   error
	disconnected bool
}

func (c *fakeConnection) Enqueue(message appmessage.Message) error {
	if c.enqueueErr != nil {
		return c.enqueueErr
	}
	c.sent = append(c.sent, message)
	return nil
}

func (c *fakeConnection) Disconnect() {
	c.disconnected = true
}

func (c *fakeConnection) Address() string {
	return "127.0.0.1:5555"
}

func TestReport(t *testing.T) {
	tests := []struct {
		name                string
		err                 error
		expectedCode        appmessage.ErrorCode
		expectedDescription string
		expectedDisconnect  bool
	}{
		{
			name:                "recoverable",
			err:                 protocolerrors.New(false, appmessage.ErrorCodeInvalidFormat, "bad frame"),
			expectedCode:        appmessage.ErrorCodeInvalidFormat,
			expectedDescription: "bad frame",
		},
		{
			name:                "handshake always disconnects",
			err:                 protocolerrors.New(false, appmessage.ErrorCodeInvalidHandshake, "say hello first"),
			expectedCode:        appmessage.ErrorCodeInvalidHandshake,
			expectedDescription: "say hello first",
			expectedDisconnect:  true,
		},
		{
			name:                "should disconnect",
			err:                 protocolerrors.New(true, appmessage.ErrorCodeInvalidFormat, "frame too large"),
			expectedCode:        appmessage.ErrorCodeInvalidFormat,
			expectedDescription: "frame too large",
			expectedDisconnect:  true,
		},
		{
			name: "wrapped",
			err: errors.Wrap(protocolerrors.Wrap(false, appmessage.ErrorCodeUnknownObject,
				errors.New("object aa is not known"), "getobject"), "handling message"),
			expectedCode:        appmessage.ErrorCodeUnknownObject,
			expectedDescription: "object aa is not known",
		},
		{
			name:                "unknown code",
			err:                 protocolerrors.New(false, appmessage.ErrorCode("NOT_A_CODE"), "rejected"),
			expectedCode:        appmessage.ErrorCodeInternalError,
			expectedDescription: "internal error",
			expectedDisconnect:  true,
		},
		{
			name:                "unexpected",
			err:                 errors.New("secret internals"),
			expectedCode:        appmessage.ErrorCodeInternalError,
			expectedDescription: "internal error",
			expectedDisconnect:  true,
		},
	}

	for _, test := range tests {
		connection := &fakeConnection{}
		disconnected := Report(connection, test.err)
		if disconnected != test.expectedDisconnect || connection.disconnected != test.expectedDisconnect {
			t.Fatalf("TestReport: %s: expected disconnect %t, got %t/%t",
				test.name, test.expectedDisconnect, disconnected, connection.disconnected)
		}
		if len(connection.sent) != 1 {
			t.Fatalf("TestReport: %s: expected one message, got %d", test.name, len(connection.sent))
		}
		msgError, ok := connection.sent[0].(*appmessage.MsgError)
		if !ok {
			t.Fatalf("TestReport: %s: expected an error message, got %s", test.name, connection.sent[0].Command())
		}
		if msgError.Name != test.expectedCode || msgError.Description != test.expectedDescription {
			t.Fatalf("TestReport: %s: got %s/%q, want %s/%q", test.name,
				msgError.Name, msgError.Description, test.expectedCode, test.expectedDescription)
		}
	}
}

func TestReportEnqueueFailure(t *testing.T) {
	connection := &fakeConnection{enqueueErr: router.ErrRouteClosed}
	disconnected := Report(connection, protocolerrors.New(false, appmessage.ErrorCodeInvalidFormat, "bad frame"))
	if !disconnected || !connection.disconnected {
		t.Fatalf("TestReportEnqueueFailure: expected a disconnect when the error can't be sent")
	}
}
