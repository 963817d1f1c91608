package handshake

import (
	"strconv"
	"strings"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/marabunet/marabud/app/protocol/protocolerrors"
)

// checkHello accepts a hello whose version shares its major and minor
// components with appmessage.ProtocolVersion. Any patch version is fine.
func checkHello(msgHello *appmessage.MsgHello) error {
	remote, ok := parseVersion(msgHello.Version)
	if !ok {
		return protocolerrors.Errorf(true, appmessage.ErrorCodeInvalidHandshake,
			"malformed protocol version %q", msgHello.Version)
	}
	local, _ := parseVersion(appmessage.ProtocolVersion)
	if remote[0] != local[0] || remote[1] != local[1] {
		return protocolerrors.Errorf(true, appmessage.ErrorCodeInvalidHandshake,
			"incompatible protocol version %s, expected %d.%d.x", msgHello.Version, local[0], local[1])
	}
	return nil
}

func parseVersion(version string) ([3]uint64, bool) {
	var parsed [3]uint64
	parts := strings.Split(version, ".")
	if len(parts) != len(parsed) {
		return parsed, false
	}
	for i, part := range parts {
		number, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return parsed, false
		}
		parsed[i] = number
	}
	return parsed, true
}
