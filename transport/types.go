package transport

import (
	"net"

	"github.com/linesock/linesock/options"
)

type (
	// Dialer connects to a listening peer and yields a raw byte stream.
	// Framing is layered above the connection by the caller.
	Dialer interface {
		Dial(opts options.Options) (net.Conn, error)
	}

	// Listener accepts raw byte-stream connections from dialing peers.
	Listener interface {
		Listen(opts options.Options) error
		Accept() (net.Conn, error)
		Close() error
		Address() string
	}

	// Transport is a stream transport bound to an address scheme.
	Transport interface {
		Scheme() string
		NewDialer(address string) (Dialer, error)
		NewListener(address string) (Listener, error)
	}
)
