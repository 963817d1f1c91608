package jsonwire

import (
	"encoding/json"

	"github.com/marabunet/marabud/app/appmessage"
	"github.com/pkg/errors"
)

// Encode serializes message as one frame: its canonical JSON object,
// including the `type` discriminator, followed by a newline.
func Encode(message appmessage.Message) ([]byte, error) {
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %s message", message.Command())
	}
	object, err := ParseObject(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "%s message doesn't marshal to a JSON object", message.Command())
	}
	object[typeField] = string(message.Command())

	frame, err := Canonicalize(object)
	if err != nil {
		return nil, err
	}
	return append(frame, '\n'), nil
}
