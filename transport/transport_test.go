package transport

import (
	"testing"
)

func TestParseScheme(t *testing.T) {
	cases := []struct {
		addr   string
		scheme string
	}{
		{"tcp://127.0.0.1:7000", "tcp"},
		{"ipc:///tmp/app.sock", "ipc"},
		{"inproc://name", "inproc"},
		{"no-scheme-here", ""},
	}
	for _, c := range cases {
		if got := ParseScheme(c.addr); got != c.scheme {
			t.Errorf("ParseScheme(%q) = %q, want %q", c.addr, got, c.scheme)
		}
	}
}

func TestGetTransportUnknown(t *testing.T) {
	if tr := GetTransport("no-such-scheme"); tr != nil {
		t.Errorf("got %v, want nil", tr)
	}
}
