package jsonwire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ParseError is returned by Parse for input that isn't a single well-formed
// JSON object or array.
type ParseError struct {
	Description string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid format: %s", e.Description)
}

// Parse decodes data into a generic JSON value: map[string]interface{} for
// objects, []interface{} for arrays, json.Number for numbers. It only
// guarantees syntactic validity and that the outermost value is an object or
// an array; every failure is a *ParseError.
func Parse(data []byte) (interface{}, error) {
	value, err := parseValue(data)
	if err != nil {
		return nil, err
	}
	switch value.(type) {
	case map[string]interface{}, []interface{}:
		return value, nil
	default:
		return nil, &ParseError{Description: fmt.Sprintf("expected a JSON object or array, got %s", describeJSONType(value))}
	}
}

// ParseObject is Parse restricted to JSON objects.
func ParseObject(data []byte) (map[string]interface{}, error) {
	value, err := Parse(data)
	if err != nil {
		return nil, err
	}
	object, ok := value.(map[string]interface{})
	if !ok {
		return nil, &ParseError{Description: "expected a JSON object, got array"}
	}
	return object, nil
}

func parseValue(data []byte) (interface{}, error) {
	if !utf8.Valid(data) {
		return nil, &ParseError{Description: "message is not valid UTF-8"}
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value interface{}
	err := decoder.Decode(&value)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Description: "empty message"}
		}
		return nil, &ParseError{Description: fmt.Sprintf("malformed JSON: %s", err)}
	}

	_, err = decoder.Token()
	if !errors.Is(err, io.EOF) {
		return nil, &ParseError{Description: "unexpected data after the JSON value"}
	}
	return value, nil
}

func describeJSONType(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}
