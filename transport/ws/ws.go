// Package ws implements the websocket transport. Each connection is
// exposed as a raw byte stream: frames written by the peer are
// concatenated on read, so line framing layered above works the same
// as on any other stream transport.
package ws

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/linesock/linesock/options"
	"github.com/linesock/linesock/transport"
)

type (
	wsTran string

	dialer struct {
		addr string
		url  *url.URL
	}

	// Listener is a websocket listener, exported for serving from an
	// external HTTP server via ServeHTTP.
	Listener struct {
		addr     string
		URL      *url.URL
		upgrader websocket.Upgrader
		htsvr    *http.Server
		listener net.Listener
		pending  chan *wsConn
		sync.Mutex
		closedq chan struct{}
	}

	wsConn struct {
		*websocket.Conn
		laddr net.Addr
		raddr net.Addr
		r     io.Reader
	}

	address string
)

const (
	// Transport is a transport.Transport for websocket.
	Transport = wsTran("ws")

	subprotocol = "linesock"
)

func init() {
	transport.RegisterTransport(Transport)
}

func noCheckOrigin(r *http.Request) bool {
	return true
}

// address
func (a address) Network() string {
	return string(Transport)
}

func (a address) String() string {
	return string(a)
}

// ws

func (c *wsConn) LocalAddr() net.Addr {
	return c.laddr
}

func (c *wsConn) RemoteAddr() net.Addr {
	return c.raddr
}

func (c *wsConn) Read(b []byte) (n int, err error) {
	if c.r == nil {
		if _, c.r, err = c.Conn.NextReader(); err != nil {
			// a closed peer, graceful or not, ends the byte stream
			var ce *websocket.CloseError
			if errors.As(err, &ce) || errors.Is(err, io.ErrUnexpectedEOF) {
				err = io.EOF
			}
			return
		}
	}
	n, err = c.r.Read(b)
	if err == io.EOF {
		c.r = nil
		if n == 0 {
			return c.Read(b)
		}
		err = nil
	}
	return
}

func (c *wsConn) Write(b []byte) (n int, err error) {
	err = c.Conn.WriteMessage(websocket.BinaryMessage, b)
	n = len(b)
	return
}

func (c *wsConn) SetDeadline(t time.Time) (err error) {
	if err = c.Conn.SetReadDeadline(t); err != nil {
		return
	}
	return c.Conn.SetWriteDeadline(t)
}

// dialer

func (d *dialer) Dial(opts options.Options) (net.Conn, error) {
	wd := &websocket.Dialer{
		WriteBufferPool: &sync.Pool{},
		Subprotocols:    []string{subprotocol},
	}
	// config
	if val, ok := opts.GetOption(OptionReadBufferSize); ok {
		wd.ReadBufferSize = OptionReadBufferSize.Value(val)
	}
	if val, ok := opts.GetOption(OptionWriteBufferSize); ok {
		wd.WriteBufferSize = OptionWriteBufferSize.Value(val)
	}

	ws, _, err := wd.Dial(d.url.String(), nil)
	if err != nil {
		return nil, err
	}

	return &wsConn{
		Conn:  ws,
		laddr: ws.LocalAddr(),
		raddr: address(d.addr),
	}, nil
}

// listener

// Listen start listen
func (l *Listener) Listen(opts options.Options) (err error) {
	select {
	case <-l.closedq:
		return transport.ErrNotListening
	default:
	}

	pendingSize := OptionPendingSize.Value(opts.GetOptionDefault(OptionPendingSize, 16))
	l.pending = make(chan *wsConn, pendingSize)
	// config
	if val, ok := opts.GetOption(OptionReadBufferSize); ok {
		l.upgrader.ReadBufferSize = OptionReadBufferSize.Value(val)
	}
	if val, ok := opts.GetOption(OptionWriteBufferSize); ok {
		l.upgrader.WriteBufferSize = OptionWriteBufferSize.Value(val)
	}
	l.upgrader.Subprotocols = []string{subprotocol}
	l.upgrader.CheckOrigin = noCheckOrigin

	var taddr *net.TCPAddr
	if taddr, err = transport.ResolveTCPAddr(l.URL.Host); err != nil {
		return err
	}

	if l.listener, err = net.ListenTCP("tcp", taddr); err != nil {
		return
	}

	mux := http.NewServeMux()
	mux.Handle(l.URL.Path, l)
	l.htsvr = &http.Server{Handler: mux}
	go func() {
		if err := l.htsvr.Serve(l.listener); err != http.ErrServerClosed {
			log.WithField("domain", "transport.ws").
				WithField("addr", l.addr).
				WithError(err).Debug("serve done")
		}
	}()
	return nil
}

// Accept waits for the next upgraded connection.
func (l *Listener) Accept() (net.Conn, error) {
	if l.listener == nil {
		return nil, transport.ErrNotListening
	}

	select {
	case c := <-l.pending:
		return c, nil
	case <-l.closedq:
		return nil, transport.ErrNotListening
	}
}

func (l *Listener) Address() string {
	if l.listener != nil {
		u := *l.URL
		u.Host = l.listener.Addr().String()
		return u.String()
	}
	return l.addr
}

// Close stop listen
func (l *Listener) Close() error {
	l.Lock()
	select {
	case <-l.closedq:
		l.Unlock()
		return nil
	default:
		close(l.closedq)
	}
	l.Unlock()

	if l.listener != nil {
		l.listener.Close()
	}

CLOSING:
	for {
		select {
		case c := <-l.pending:
			c.Close()
		default:
			break CLOSING
		}
	}
	return nil
}

func (l *Listener) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	ws, err := l.upgrader.Upgrade(resp, req, nil)
	if err != nil {
		log.WithField("domain", "transport.ws").
			WithError(err).Debug("upgrade")
		return
	}

	select {
	case <-l.closedq:
		ws.Close()
		return
	default:
	}

	c := &wsConn{
		Conn:  ws,
		laddr: address(l.addr),
		raddr: ws.RemoteAddr(),
	}

	l.pending <- c
}

func (t wsTran) Scheme() string {
	return string(t)
}

func (t wsTran) NewDialer(addr string) (transport.Dialer, error) {
	url, err := parseAddressToURL(t, addr)
	if err != nil {
		return nil, err
	}

	return &dialer{
		addr: addr,
		url:  url,
	}, nil
}

func (t wsTran) NewListener(addr string) (transport.Listener, error) {
	url, err := parseAddressToURL(t, addr)
	if err != nil {
		return nil, err
	}
	if url.Path == "" {
		url.Path = "/"
	}

	return &Listener{
		addr:    addr,
		URL:     url,
		closedq: make(chan struct{}),
	}, nil
}

func parseAddressToURL(t wsTran, addr string) (*url.URL, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, transport.ErrBadTransport
	}
	if u.Scheme != t.Scheme() {
		return nil, transport.ErrBadTransport
	}
	return u, nil
}
