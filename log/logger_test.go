package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	specs := []struct {
		in       string
		exp      Level
		expError string
	}{
		{"debug", Debug, ""},
		{"INFO", Info, ""},
		{"warning", Warning, ""},
		{"chatty", Notice, `log: unknown level "chatty"`},
	}

	for specIndex, spec := range specs {
		level, err := ParseLevel(spec.in)
		if spec.expError != "" {
			if err == nil || err.Error() != spec.expError {
				t.Fatalf("[spec %d] expected error %q; got %v", specIndex, spec.expError, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", specIndex, err)
		}
		if level != spec.exp {
			t.Fatalf("[spec %d] expected level %d; got %d", specIndex, spec.exp, level)
		}
	}
}

func TestSinkAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stderr)
	defer SetLevel(Notice)

	logger := New("test")

	SetLevel(Notice)
	logger.Debugf("hidden %d", 1)
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("expected debug message to be filtered; got %q", buf.String())
	}

	SetLevel(Debug)
	logger.Debugf("visible %d", 2)
	if !strings.Contains(buf.String(), "visible 2") {
		t.Fatalf("expected debug message to be logged; got %q", buf.String())
	}
}
