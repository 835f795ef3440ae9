// Package inproc implements the intra-process transport on top of
// net.Pipe. It is mainly useful for tests and examples that need a
// stream peer without touching the network.
package inproc

import (
	"net"
	"sync"

	"github.com/linesock/linesock/options"
	"github.com/linesock/linesock/transport"
)

type (
	inprocTran int

	dialer struct {
		addr string
	}

	listener struct {
		addr    string
		accepts chan net.Conn
		sync.Mutex
		closedq   chan struct{}
		listening bool
	}

	pipeConn struct {
		net.Conn
		laddr net.Addr
		raddr net.Addr
	}

	pipeAddr string
)

const (
	// Transport is a transport.Transport for intra-process communication.
	Transport = inprocTran(0)

	scheme = "inproc"

	defaultAcceptQueueSize = 8
)

var listeners struct {
	sync.RWMutex
	// Who is listening, on which "address"?
	byAddr map[string]*listener
}

func init() {
	listeners.byAddr = make(map[string]*listener)
	transport.RegisterTransport(Transport)
}

// pipeAddr
func (a pipeAddr) Network() string {
	return scheme
}

func (a pipeAddr) String() string {
	return string(a)
}

// pipeConn
func (p *pipeConn) LocalAddr() net.Addr {
	return p.laddr
}

func (p *pipeConn) RemoteAddr() net.Addr {
	return p.raddr
}

// dialer

func (d *dialer) Dial(opts options.Options) (net.Conn, error) {
	listeners.RLock()
	l, ok := listeners.byAddr[d.addr]
	listeners.RUnlock()
	if !ok {
		return nil, transport.ErrConnRefused
	}

	cc, sc := net.Pipe()
	caddr, saddr := pipeAddr(d.addr+".dialer"), pipeAddr(d.addr)
	client := &pipeConn{Conn: cc, laddr: caddr, raddr: saddr}
	server := &pipeConn{Conn: sc, laddr: saddr, raddr: caddr}

	select {
	case l.accepts <- server:
		return client, nil
	case <-l.closedq:
		return nil, transport.ErrConnRefused
	}
}

// listener

func (l *listener) Listen(opts options.Options) error {
	listeners.Lock()
	defer listeners.Unlock()

	if cur, ok := listeners.byAddr[l.addr]; ok && cur != l {
		return transport.ErrAddrInUse
	}
	listeners.byAddr[l.addr] = l
	l.listening = true
	return nil
}

func (l *listener) Accept() (net.Conn, error) {
	if !l.listening {
		return nil, transport.ErrNotListening
	}

	select {
	case conn := <-l.accepts:
		return conn, nil
	case <-l.closedq:
		return nil, transport.ErrNotListening
	}
}

func (l *listener) Address() string {
	return scheme + "://" + l.addr
}

func (l *listener) Close() error {
	l.Lock()
	select {
	case <-l.closedq:
		l.Unlock()
		return nil
	default:
		close(l.closedq)
	}
	l.Unlock()

	listeners.Lock()
	if listeners.byAddr[l.addr] == l {
		delete(listeners.byAddr, l.addr)
	}
	listeners.Unlock()

CLOSING:
	for {
		select {
		case c := <-l.accepts:
			c.Close()
		default:
			break CLOSING
		}
	}
	return nil
}

func (t inprocTran) Scheme() string {
	return scheme
}

func (t inprocTran) NewDialer(address string) (transport.Dialer, error) {
	var err error
	if address, err = transport.StripScheme(t, address); err != nil {
		return nil, err
	}
	return &dialer{addr: address}, nil
}

func (t inprocTran) NewListener(address string) (transport.Listener, error) {
	var err error
	if address, err = transport.StripScheme(t, address); err != nil {
		return nil, err
	}
	return &listener{
		addr:    address,
		accepts: make(chan net.Conn, defaultAcceptQueueSize),
		closedq: make(chan struct{}),
	}, nil
}
