package jsonwire

import (
	"fmt"
	"sort"

	"github.com/marabunet/marabud/app/appmessage"
)

// ValidationErrorKind classifies why a JSON object isn't a valid message.
type ValidationErrorKind int

const (
	// UnknownType means the `type` field is missing, not a string, or not a
	// known message command.
	UnknownType ValidationErrorKind = iota

	// SchemaMismatch means the message type is known but a field is missing,
	// extraneous, or of the wrong shape.
	SchemaMismatch
)

func (kind ValidationErrorKind) String() string {
	switch kind {
	case UnknownType:
		return "UnknownType"
	case SchemaMismatch:
		return "SchemaMismatch"
	default:
		return fmt.Sprintf("ValidationErrorKind(%d)", int(kind))
	}
}

// ValidationError is returned by Validate for objects that don't match any
// message schema.
type ValidationError struct {
	Kind    ValidationErrorKind
	Command appmessage.MessageCommand
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Kind == UnknownType {
		return fmt.Sprintf("unknown message type: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s message: field `%s` %s", e.Command, e.Field, e.Reason)
}

type messageValidator func(object map[string]interface{}) (appmessage.Message, error)

const typeField = "type"

// validators holds one schema predicate per message command. A new message
// type is supported by adding an entry.
var validators = map[appmessage.MessageCommand]messageValidator{
	appmessage.CmdHello:       validateHello,
	appmessage.CmdError:       validateError,
	appmessage.CmdGetPeers:    validateEmpty(appmessage.CmdGetPeers, func() appmessage.Message { return appmessage.NewMsgGetPeers() }),
	appmessage.CmdPeers:       validatePeers,
	appmessage.CmdGetObject:   validateGetObject,
	appmessage.CmdIHaveObject: validateIHaveObject,
	appmessage.CmdObject:      validateObject,
	appmessage.CmdGetMempool:  validateEmpty(appmessage.CmdGetMempool, func() appmessage.Message { return appmessage.NewMsgGetMempool() }),
	appmessage.CmdMempool:     validateMempool,
	appmessage.CmdGetChainTip: validateEmpty(appmessage.CmdGetChainTip, func() appmessage.Message { return appmessage.NewMsgGetChainTip() }),
	appmessage.CmdChainTip:    validateChainTip,
}

// Validate maps a parsed JSON object to the message variant named by its
// `type` field. Either a complete message or a *ValidationError is returned.
func Validate(object map[string]interface{}) (appmessage.Message, error) {
	rawType, ok := object[typeField]
	if !ok {
		return nil, &ValidationError{Kind: UnknownType, Field: typeField, Reason: "missing `type` field"}
	}
	typeString, ok := rawType.(string)
	if !ok {
		return nil, &ValidationError{Kind: UnknownType, Field: typeField,
			Reason: fmt.Sprintf("`type` is a %s, not a string", describeJSONType(rawType))}
	}
	validator, ok := validators[appmessage.MessageCommand(typeString)]
	if !ok {
		return nil, &ValidationError{Kind: UnknownType, Field: typeField,
			Reason: fmt.Sprintf("%q", typeString)}
	}
	return validator(object)
}

// DecodeMessage parses one frame and validates it. The returned error is a
// *ParseError or a *ValidationError.
func DecodeMessage(frame []byte) (appmessage.Message, error) {
	object, err := ParseObject(frame)
	if err != nil {
		return nil, err
	}
	return Validate(object)
}

func schemaMismatch(command appmessage.MessageCommand, field, reasonFormat string, args ...interface{}) error {
	return &ValidationError{
		Kind:    SchemaMismatch,
		Command: command,
		Field:   field,
		Reason:  fmt.Sprintf(reasonFormat, args...),
	}
}

// requireExactFields fails on the first missing field, then on the first
// extraneous one, in lexicographic order.
func requireExactFields(command appmessage.MessageCommand, object map[string]interface{}, fields ...string) error {
	expected := make(map[string]struct{}, len(fields)+1)
	expected[typeField] = struct{}{}
	for _, field := range fields {
		expected[field] = struct{}{}
		if _, ok := object[field]; !ok {
			return schemaMismatch(command, field, "is missing")
		}
	}

	var extraneous []string
	for key := range object {
		if _, ok := expected[key]; !ok {
			extraneous = append(extraneous, key)
		}
	}
	if len(extraneous) > 0 {
		sort.Strings(extraneous)
		return schemaMismatch(command, extraneous[0], "is not allowed")
	}
	return nil
}

func stringField(command appmessage.MessageCommand, object map[string]interface{}, field string) (string, error) {
	value, ok := object[field].(string)
	if !ok {
		return "", schemaMismatch(command, field, "must be a string, got %s", describeJSONType(object[field]))
	}
	return value, nil
}

func stringArrayField(command appmessage.MessageCommand, object map[string]interface{}, field string) ([]string, error) {
	array, ok := object[field].([]interface{})
	if !ok {
		return nil, schemaMismatch(command, field, "must be an array, got %s", describeJSONType(object[field]))
	}
	strings := make([]string, len(array))
	for i, element := range array {
		s, ok := element.(string)
		if !ok {
			return nil, schemaMismatch(command, field, "element %d must be a string, got %s", i, describeJSONType(element))
		}
		strings[i] = s
	}
	return strings, nil
}

func validateEmpty(command appmessage.MessageCommand, newMessage func() appmessage.Message) messageValidator {
	return func(object map[string]interface{}) (appmessage.Message, error) {
		err := requireExactFields(command, object)
		if err != nil {
			return nil, err
		}
		return newMessage(), nil
	}
}

func validateHello(object map[string]interface{}) (appmessage.Message, error) {
	err := requireExactFields(appmessage.CmdHello, object, "version", "agent")
	if err != nil {
		return nil, err
	}
	version, err := stringField(appmessage.CmdHello, object, "version")
	if err != nil {
		return nil, err
	}
	agent, err := stringField(appmessage.CmdHello, object, "agent")
	if err != nil {
		return nil, err
	}
	return appmessage.NewMsgHello(version, agent), nil
}

func validateError(object map[string]interface{}) (appmessage.Message, error) {
	err := requireExactFields(appmessage.CmdError, object, "name", "description")
	if err != nil {
		return nil, err
	}
	name, err := stringField(appmessage.CmdError, object, "name")
	if err != nil {
		return nil, err
	}
	if !appmessage.ErrorCode(name).IsValid() {
		return nil, schemaMismatch(appmessage.CmdError, "name", "%q is not a known error code", name)
	}
	description, err := stringField(appmessage.CmdError, object, "description")
	if err != nil {
		return nil, err
	}
	return appmessage.NewMsgError(appmessage.ErrorCode(name), description), nil
}

func validatePeers(object map[string]interface{}) (appmessage.Message, error) {
	err := requireExactFields(appmessage.CmdPeers, object, "peers")
	if err != nil {
		return nil, err
	}
	peers, err := stringArrayField(appmessage.CmdPeers, object, "peers")
	if err != nil {
		return nil, err
	}
	return &appmessage.MsgPeers{Peers: peers}, nil
}

func validateGetObject(object map[string]interface{}) (appmessage.Message, error) {
	err := requireExactFields(appmessage.CmdGetObject, object, "objectid")
	if err != nil {
		return nil, err
	}
	objectID, err := stringField(appmessage.CmdGetObject, object, "objectid")
	if err != nil {
		return nil, err
	}
	return appmessage.NewMsgGetObject(appmessage.ObjectID(objectID)), nil
}

func validateIHaveObject(object map[string]interface{}) (appmessage.Message, error) {
	err := requireExactFields(appmessage.CmdIHaveObject, object, "objectid")
	if err != nil {
		return nil, err
	}
	objectID, err := stringField(appmessage.CmdIHaveObject, object, "objectid")
	if err != nil {
		return nil, err
	}
	return appmessage.NewMsgIHaveObject(appmessage.ObjectID(objectID)), nil
}

func validateObject(object map[string]interface{}) (appmessage.Message, error) {
	err := requireExactFields(appmessage.CmdObject, object, "object")
	if err != nil {
		return nil, err
	}
	inner, ok := object["object"].(map[string]interface{})
	if !ok {
		return nil, schemaMismatch(appmessage.CmdObject, "object", "must be an object, got %s",
			describeJSONType(object["object"]))
	}
	canonical, err := Canonicalize(inner)
	if err != nil {
		return nil, schemaMismatch(appmessage.CmdObject, "object", "cannot be canonicalized: %s", err)
	}
	return appmessage.NewMsgObject(canonical), nil
}

func validateMempool(object map[string]interface{}) (appmessage.Message, error) {
	err := requireExactFields(appmessage.CmdMempool, object, "txids")
	if err != nil {
		return nil, err
	}
	txIDs, err := stringArrayField(appmessage.CmdMempool, object, "txids")
	if err != nil {
		return nil, err
	}
	msgTxIDs := make([]appmessage.ObjectID, len(txIDs))
	for i, txID := range txIDs {
		msgTxIDs[i] = appmessage.ObjectID(txID)
	}
	return &appmessage.MsgMempool{TxIDs: msgTxIDs}, nil
}

func validateChainTip(object map[string]interface{}) (appmessage.Message, error) {
	err := requireExactFields(appmessage.CmdChainTip, object, "blockid")
	if err != nil {
		return nil, err
	}
	blockID, err := stringField(appmessage.CmdChainTip, object, "blockid")
	if err != nil {
		return nil, err
	}
	return appmessage.NewMsgChainTip(appmessage.ObjectID(blockID)), nil
}
