package jsonwire

import (
	"testing"
)

func TestCanonicalizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"sorted keys", `{"b":1, "a":2}`, `{"a":2,"b":1}`},
		{"nested", `{"z":{"y":[3, {"d":null,"c":true}],"x":"s"},"a":[]}`,
			`{"a":[],"z":{"x":"s","y":[3,{"c":true,"d":null}]}}`},
		{"whitespace", " {\n\t\"type\" : \"hello\" }\n", `{"type":"hello"}`},
		{"integers", `[1, -0, 1.0, 100, 1e3]`, `[1,0,1,100,1000]`},
		{"fractions", `[0.5, 1.25e-7, 1e21, 123456789012345680000]`, `[0.5,1.25e-7,1e+21,123456789012345680000]`},
		{"escapes", `["Aé\n\u001f\"\\\/<>"]`, "[\"Aé\\n\\u001f\\\"\\\\/<>\"]"},
		{"utf16 order", `{"\u00e9":1,"\ud83d\ude00":2,"\uffff":3}`, "{\"\u00e9\":1,\"\U0001F600\":2,\"\uffff\":3}"},
		{"huge number", `[1e400]`, `[1e400]`},
	}
	for _, test := range tests {
		canonical, err := CanonicalizeBytes([]byte(test.input))
		if err != nil {
			t.Fatalf("TestCanonicalizeBytes: %s: %+v", test.name, err)
		}
		if string(canonical) != test.expected {
			t.Errorf("TestCanonicalizeBytes: %s: got %s, want %s", test.name, canonical, test.expected)
		}
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		`{"type":"object","object":{"type":"block","txids":["ab","cd"],"nonce":"00","T":"00ff","created":1671062400,"miner":"m","note":"n","previd":null}}`,
		`{"peers":["127.0.0.1:18018","[::1]:18018"],"type":"peers"}`,
		`[0.1, 2.5e-9, {"b":" ","a":[false]}]`,
	}
	for _, input := range inputs {
		once, err := CanonicalizeBytes([]byte(input))
		if err != nil {
			t.Fatalf("TestCanonicalizeIsIdempotent: %+v", err)
		}
		twice, err := CanonicalizeBytes(once)
		if err != nil {
			t.Fatalf("TestCanonicalizeIsIdempotent: %+v", err)
		}
		if string(once) != string(twice) {
			t.Errorf("TestCanonicalizeIsIdempotent: %s canonicalized to %s", once, twice)
		}
	}
}

func TestCanonicalizeEqualValues(t *testing.T) {
	a, err := CanonicalizeBytes([]byte(`{"x":[1,2],"y":{"b":1.0,"a":"é"}}`))
	if err != nil {
		t.Fatalf("TestCanonicalizeEqualValues: %+v", err)
	}
	b, err := CanonicalizeBytes([]byte(`{"y":{"a":"é","b":1},"x":[1.0e0,2]}`))
	if err != nil {
		t.Fatalf("TestCanonicalizeEqualValues: %+v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("TestCanonicalizeEqualValues: %s != %s", a, b)
	}
}

func TestCanonicalizeGoValues(t *testing.T) {
	canonical, err := Canonicalize(struct {
		B string  `json:"b"`
		A float64 `json:"a"`
	}{B: "x", A: 2})
	if err != nil {
		t.Fatalf("TestCanonicalizeGoValues: %+v", err)
	}
	if string(canonical) != `{"a":2,"b":"x"}` {
		t.Fatalf("TestCanonicalizeGoValues: got %s", canonical)
	}
}
