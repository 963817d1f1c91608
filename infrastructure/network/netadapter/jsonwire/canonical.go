package jsonwire

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Canonicalize serializes value deterministically: object keys are sorted
// by their UTF-16 code units at every depth, no insignificant whitespace is
// written, strings use the minimal escaping and numbers use the shortest
// ECMAScript representation. Semantically equal values produce identical
// bytes, and canonicalizing the parsed output again yields the same bytes.
//
// value is normally the result of Parse. Other Go values are first run
// through encoding/json.
func Canonicalize(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	err := writeCanonical(&buf, value)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CanonicalizeBytes parses data as JSON and canonicalizes the result.
func CanonicalizeBytes(data []byte) ([]byte, error) {
	value, err := parseValue(data)
	if err != nil {
		return nil, err
	}
	return Canonicalize(value)
}

func writeCanonical(buf *bytes.Buffer, value interface{}) error {
	switch value := value.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if value {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		writeCanonicalString(buf, value)
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			// Out of float64 range: keep the literal rather than reject
			// syntactically valid JSON.
			buf.WriteString(string(value))
			return nil
		}
		return writeCanonicalNumber(buf, f)
	case float64:
		return writeCanonicalNumber(buf, value)
	case map[string]interface{}:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })

		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, key)
			buf.WriteByte(':')
			err := writeCanonical(buf, value[key])
			if err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []interface{}:
		buf.WriteByte('[')
		for i, element := range value {
			if i > 0 {
				buf.WriteByte(',')
			}
			err := writeCanonical(buf, element)
			if err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case json.RawMessage:
		parsed, err := parseValue(value)
		if err != nil {
			return err
		}
		return writeCanonical(buf, parsed)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return errors.Wrapf(err, "cannot canonicalize %T", value)
		}
		parsed, err := parseValue(encoded)
		if err != nil {
			return err
		}
		return writeCanonical(buf, parsed)
	}
	return nil
}

// lessUTF16 orders strings by UTF-16 code units, the order used by
// ECMAScript implementations of canonical JSON.
func lessUTF16(a, b string) bool {
	unitsA := utf16.Encode([]rune(a))
	unitsB := utf16.Encode([]rune(b))
	for i := 0; i < len(unitsA) && i < len(unitsB); i++ {
		if unitsA[i] != unitsB[i] {
			return unitsA[i] < unitsB[i]
		}
	}
	return len(unitsA) < len(unitsB)
}

const hexDigits = "0123456789abcdef"

func writeCanonicalString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[r>>4])
			buf.WriteByte(hexDigits[r&0xf])
		default:
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}

func writeCanonicalNumber(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.Errorf("%v cannot be represented in JSON", f)
	}
	if f == 0 {
		buf.WriteByte('0')
		return nil
	}
	if f < 0 {
		buf.WriteByte('-')
		f = -f
	}
	format := byte('e')
	if f >= 1e-6 && f < 1e21 {
		format = 'f'
	}
	formatted := strconv.FormatFloat(f, format, -1, 64)
	// Go writes exponents as e+09, ECMAScript as e+9.
	if exponentIndex := strings.IndexByte(formatted, 'e'); exponentIndex > 0 &&
		formatted[exponentIndex+2] == '0' {
		formatted = formatted[:exponentIndex+2] + formatted[exponentIndex+3:]
	}
	buf.WriteString(formatted)
	return nil
}
