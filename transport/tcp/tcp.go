// Package tcp implements the TCP transport. To enable it simply import it.
package tcp

import (
	"net"

	"github.com/linesock/linesock/options"
	"github.com/linesock/linesock/transport"
)

type (
	tcpTran int

	dialer struct {
		addr string
	}

	listener struct {
		addr     *net.TCPAddr
		bound    net.Addr
		listener *net.TCPListener
	}
)

const (
	// Transport is a transport.Transport for TCP.
	Transport = tcpTran(0)
)

func init() {
	transport.RegisterTransport(Transport)
}

func configTCP(conn *net.TCPConn, opts options.Options) error {
	if val, ok := opts.GetOption(OptionNoDelay); ok {
		if err := conn.SetNoDelay(OptionNoDelay.Value(val)); err != nil {
			return err
		}
	}
	if val, ok := opts.GetOption(OptionKeepAlive); ok {
		if err := conn.SetKeepAlive(OptionKeepAlive.Value(val)); err != nil {
			return err
		}
	}
	if val, ok := opts.GetOption(OptionKeepAliveTime); ok {
		if err := conn.SetKeepAlivePeriod(OptionKeepAliveTime.Value(val)); err != nil {
			return err
		}
	}
	return nil
}

func (d *dialer) Dial(opts options.Options) (net.Conn, error) {
	addr, err := transport.ResolveTCPAddr(d.addr)
	if err != nil {
		return nil, err
	}

	conn, err := net.DialTCP("tcp", nil, addr)
	if err != nil {
		return nil, err
	}
	if err = configTCP(conn, opts); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func (l *listener) Listen(opts options.Options) (err error) {
	l.listener, err = net.ListenTCP("tcp", l.addr)
	if err == nil {
		l.bound = l.listener.Addr()
	}
	return
}

func (l *listener) Accept() (net.Conn, error) {
	if l.listener == nil {
		return nil, transport.ErrNotListening
	}
	conn, err := l.listener.AcceptTCP()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (l *listener) Address() string {
	if b := l.bound; b != nil {
		return "tcp://" + b.String()
	}
	return "tcp://" + l.addr.String()
}

func (l *listener) Close() error {
	if l.listener == nil {
		return nil
	}
	return l.listener.Close()
}

func (t tcpTran) Scheme() string {
	return "tcp"
}

func (t tcpTran) NewDialer(address string) (transport.Dialer, error) {
	var err error
	if address, err = transport.StripScheme(t, address); err != nil {
		return nil, err
	}

	// verify the address is resolvable up front
	if _, err = transport.ResolveTCPAddr(address); err != nil {
		return nil, err
	}

	return &dialer{addr: address}, nil
}

func (t tcpTran) NewListener(address string) (transport.Listener, error) {
	var err error
	if address, err = transport.StripScheme(t, address); err != nil {
		return nil, err
	}

	addr, err := transport.ResolveTCPAddr(address)
	if err != nil {
		return nil, err
	}

	return &listener{addr: addr}, nil
}
