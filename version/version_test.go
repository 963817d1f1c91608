package version

import (
	"strings"
	"testing"
)

func TestCheckAppBuild(t *testing.T) {
	tests := []struct {
		build    string
		expected string
	}{
		{build: "", expected: ""},
		{build: "dev-42", expected: "dev-42"},
		{build: "bad build", expected: ""},
		{build: "ünicode", expected: ""},
	}
	for _, test := range tests {
		result := checkAppBuild(test.build)
		if result != test.expected {
			t.Fatalf("TestCheckAppBuild: checkAppBuild(%q) = %q, want %q", test.build, result, test.expected)
		}
	}
}

func TestAgent(t *testing.T) {
	agent := Agent("")
	if agent != "marabud/"+Version() {
		t.Fatalf("TestAgent: unexpected agent %q", agent)
	}
	agent = Agent("testnode")
	if !strings.HasSuffix(agent, " (testnode)") {
		t.Fatalf("TestAgent: comment missing from agent %q", agent)
	}
}
