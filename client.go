package linesock

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/linesock/linesock/bytespool"
	"github.com/linesock/linesock/errs"
	"github.com/linesock/linesock/options"
	"github.com/linesock/linesock/transport"
)

// Delimiter is the byte marking the end of one message on the wire.
const Delimiter = '\n'

const defaultRecvChunkSize = 4096

type (
	// Client is a line-delimited message client over a single stream
	// connection. All Send and Recv calls on one Client are serialized
	// by a shared lock, so frames are never interleaved on the wire and
	// the receive buffer is mutated by one operation at a time.
	Client struct {
		addr      string
		conn      net.Conn
		timeout   time.Duration
		chunkSize int

		sync.Mutex // serializes Send and Recv
		rbuf       []byte
		eof        bool

		stateLock sync.Mutex // guards closed; Close never waits behind a blocked operation
		closed    bool
	}
)

// Dial connects to a scheme address such as "tcp://127.0.0.1:7000",
// "ipc:///tmp/app.sock", "ws://127.0.0.1:7000/echo" or
// "inproc://name". The transport for the scheme must be registered,
// usually by importing transport/all. opts may be nil.
func Dial(addr string, opts options.Options) (*Client, error) {
	if opts == nil {
		opts = options.NewOptions()
	}

	t := transport.GetTransportFromAddr(addr)
	if t == nil {
		return nil, errs.ErrBadTransport
	}

	d, err := t.NewDialer(addr)
	if err != nil {
		return nil, err
	}

	conn, err := d.Dial(opts)
	if err != nil {
		return nil, err
	}

	return NewClient(conn, addr, opts), nil
}

// Connect dials host:port over TCP. timeout bounds every subsequent
// blocking read and write; zero means block indefinitely.
func Connect(host string, port int, timeout time.Duration) (*Client, error) {
	if port < 0 || port > 65535 {
		return nil, errs.ErrBadAddr
	}
	addr := "tcp://" + net.JoinHostPort(host, strconv.Itoa(port))
	return Dial(addr, options.NewOptions().WithOption(OptionTimeout, timeout))
}

// NewClient wraps an established stream connection. Useful when the
// conn was accepted rather than dialed. opts may be nil.
func NewClient(conn net.Conn, addr string, opts options.Options) *Client {
	if opts == nil {
		opts = options.NewOptions()
	}
	return &Client{
		addr: addr,
		conn: conn,
		timeout: OptionTimeout.Value(
			opts.GetOptionDefault(OptionTimeout, time.Duration(0))),
		chunkSize: OptionRecvChunkSize.Value(
			opts.GetOptionDefault(OptionRecvChunkSize, defaultRecvChunkSize)),
	}
}

// With dials addr, runs fn with the client and closes it on every
// exit path, including a panic inside fn.
func With(addr string, opts options.Options, fn func(c *Client) error) error {
	c, err := Dial(addr, opts)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// Addr returns the address the client was dialed with.
func (c *Client) Addr() string {
	return c.addr
}

// Send writes one message to the peer, appending the delimiter unless
// msg already ends with it. The full payload is written before any
// other Send or Recv on this client proceeds. A message containing
// the delimiter anywhere but the final position is rejected with
// errs.ErrEmbeddedDelim; sending it would split it into two messages
// on the receiving side.
func (c *Client) Send(msg string) error {
	if c.isClosed() {
		return errs.ErrClosed
	}

	if i := strings.IndexByte(msg, Delimiter); i >= 0 && i != len(msg)-1 {
		return errs.ErrEmbeddedDelim
	}
	if !strings.HasSuffix(msg, string(Delimiter)) {
		msg += string(Delimiter)
	}
	payload := []byte(msg)

	c.Lock()
	defer c.Unlock()

	if c.isClosed() {
		return errs.ErrClosed
	}
	if c.timeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}

	sent := 0
	for sent < len(payload) {
		n, err := c.conn.Write(payload[sent:])
		if err != nil {
			return c.mapErr(err)
		}
		if n == 0 {
			return errs.ErrBrokenWrite
		}
		sent += n
	}
	return nil
}

// Recv blocks until one full message is available and returns it
// without the delimiter. Bytes past the first delimiter stay buffered
// for the next call. When the peer closes the connection, buffered
// bytes with no delimiter are returned once as a final message;
// after that Recv fails with errs.ErrConnClosed. A timeout leaves
// buffered partial bytes intact, so the caller may retry.
func (c *Client) Recv() (string, error) {
	if c.isClosed() {
		return "", errs.ErrClosed
	}

	c.Lock()
	defer c.Unlock()

	for {
		if i := bytes.IndexByte(c.rbuf, Delimiter); i >= 0 {
			line := c.rbuf[:i]
			c.rbuf = c.rbuf[i+1:]
			return decode(line)
		}

		if c.eof {
			if len(c.rbuf) > 0 {
				line := c.rbuf
				c.rbuf = nil
				return decode(line)
			}
			return "", errs.ErrConnClosed
		}

		if c.timeout > 0 {
			c.conn.SetReadDeadline(time.Now().Add(c.timeout))
		}
		chunk := bytespool.Alloc(c.chunkSize)
		n, err := c.conn.Read(chunk)
		if n > 0 {
			c.rbuf = append(c.rbuf, chunk[:n]...)
		}
		bytespool.Free(chunk)
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.eof = true
				continue
			}
			return "", c.mapErr(err)
		}
	}
}

// Close shuts down both directions of the connection and releases it.
// Cleanup is best effort: shutdown errors are suppressed and the
// returned error is always nil. Close is idempotent and safe to call
// concurrently with itself or with a blocked Send/Recv; the blocked
// call then fails with a closed error.
func (c *Client) Close() error {
	c.stateLock.Lock()
	if c.closed {
		c.stateLock.Unlock()
		return nil
	}
	c.closed = true
	c.stateLock.Unlock()

	if cw, ok := c.conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
	c.conn.Close()
	return nil
}

func (c *Client) isClosed() bool {
	c.stateLock.Lock()
	defer c.stateLock.Unlock()
	return c.closed
}

func (c *Client) mapErr(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return errs.ErrTimeout
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		if c.isClosed() {
			return errs.ErrClosed
		}
		return errs.ErrConnClosed
	}
	return err
}

func decode(line []byte) (string, error) {
	if !utf8.Valid(line) {
		return "", errs.ErrInvalidUTF8
	}
	return string(line), nil
}
