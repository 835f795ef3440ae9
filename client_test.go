package linesock_test

import (
	"bufio"
	"net"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linesock/linesock"
	"github.com/linesock/linesock/errs"
	"github.com/linesock/linesock/options"
	"github.com/linesock/linesock/transport"
	_ "github.com/linesock/linesock/transport/all"
)

var testTransports = []struct {
	name string
}{
	{"tcp"},
	{"ipc"},
	{"ws"},
	{"inproc"},
}

func listenAddr(t *testing.T, scheme string) string {
	switch scheme {
	case "tcp":
		return "tcp://127.0.0.1:0"
	case "ipc":
		return "ipc://" + filepath.Join(t.TempDir(), "peer.sock")
	case "ws":
		return "ws://127.0.0.1:0/lines"
	case "inproc":
		return "inproc://" + strings.ReplaceAll(t.Name(), "/", ".")
	}
	t.Fatalf("unknown scheme: %s", scheme)
	return ""
}

func startPeer(t *testing.T, scheme string) (transport.Listener, string) {
	if scheme == "ipc" && runtime.GOOS == "windows" {
		t.Skip("ipc test peer uses unix socket paths")
	}

	tr := transport.GetTransport(scheme)
	if tr == nil {
		t.Fatalf("transport not registered: %s", scheme)
	}
	l, err := tr.NewListener(listenAddr(t, scheme))
	if err != nil {
		t.Fatalf("new listener: %s", err)
	}
	if err = l.Listen(options.NewOptions()); err != nil {
		t.Fatalf("listen: %s", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, l.Address()
}

func acceptOne(t *testing.T, l transport.Listener) net.Conn {
	conn, err := l.Accept()
	if err != nil {
		t.Fatalf("accept: %s", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSendRecvRoundTrip(t *testing.T) {
	for _, tp := range testTransports {
		t.Run(tp.name, func(t *testing.T) {
			l, addr := startPeer(t, tp.name)
			c, err := linesock.Dial(addr, nil)
			if err != nil {
				t.Fatalf("dial: %s", err)
			}
			defer c.Close()
			conn := acceptOne(t, l)

			got := make(chan string, 1)
			go func() {
				r := bufio.NewReader(conn)
				line, err := r.ReadString('\n')
				if err != nil {
					t.Errorf("peer read: %s", err)
				}
				got <- line
				if _, err := conn.Write([]byte("world\n")); err != nil {
					t.Errorf("peer write: %s", err)
				}
			}()

			if err = c.Send("hello"); err != nil {
				t.Fatalf("send: %s", err)
			}
			if line := <-got; line != "hello\n" {
				t.Errorf("peer got %q, want %q", line, "hello\n")
			}
			msg, err := c.Recv()
			if err != nil {
				t.Fatalf("recv: %s", err)
			}
			if msg != "world" {
				t.Errorf("recv %q, want %q", msg, "world")
			}
		})
	}
}

func TestSendAppendsSingleDelimiter(t *testing.T) {
	for _, tp := range testTransports {
		t.Run(tp.name, func(t *testing.T) {
			l, addr := startPeer(t, tp.name)
			c, err := linesock.Dial(addr, nil)
			if err != nil {
				t.Fatalf("dial: %s", err)
			}
			defer c.Close()
			conn := acceptOne(t, l)

			got := make(chan []string, 1)
			go func() {
				r := bufio.NewReader(conn)
				var lines []string
				for i := 0; i < 2; i++ {
					line, err := r.ReadString('\n')
					if err != nil {
						t.Errorf("peer read: %s", err)
						break
					}
					lines = append(lines, line)
				}
				got <- lines
			}()

			// first message carries its own delimiter already
			if err = c.Send("hello\n"); err != nil {
				t.Fatalf("send: %s", err)
			}
			if err = c.Send("world"); err != nil {
				t.Fatalf("send: %s", err)
			}

			lines := <-got
			want := []string{"hello\n", "world\n"}
			if len(lines) != len(want) {
				t.Fatalf("peer got %d lines, want %d", len(lines), len(want))
			}
			for i := range want {
				if lines[i] != want[i] {
					t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
				}
			}
		})
	}
}

func TestRecvBufferCarryOver(t *testing.T) {
	for _, tp := range testTransports {
		t.Run(tp.name, func(t *testing.T) {
			l, addr := startPeer(t, tp.name)
			c, err := linesock.Dial(addr, nil)
			if err != nil {
				t.Fatalf("dial: %s", err)
			}
			defer c.Close()
			conn := acceptOne(t, l)

			// both messages arrive in one delivery
			go conn.Write([]byte("A\nB\n"))

			for _, want := range []string{"A", "B"} {
				msg, err := c.Recv()
				if err != nil {
					t.Fatalf("recv: %s", err)
				}
				if msg != want {
					t.Errorf("recv %q, want %q", msg, want)
				}
			}
		})
	}
}

func TestRecvPartialAssembly(t *testing.T) {
	for _, tp := range testTransports {
		t.Run(tp.name, func(t *testing.T) {
			l, addr := startPeer(t, tp.name)
			c, err := linesock.Dial(addr, nil)
			if err != nil {
				t.Fatalf("dial: %s", err)
			}
			defer c.Close()
			conn := acceptOne(t, l)

			go func() {
				conn.Write([]byte("AB"))
				time.Sleep(20 * time.Millisecond)
				conn.Write([]byte("C\n"))
			}()

			msg, err := c.Recv()
			if err != nil {
				t.Fatalf("recv: %s", err)
			}
			if msg != "ABC" {
				t.Errorf("recv %q, want %q", msg, "ABC")
			}
		})
	}
}

func TestRecvPeerClosedTail(t *testing.T) {
	for _, tp := range testTransports {
		t.Run(tp.name, func(t *testing.T) {
			l, addr := startPeer(t, tp.name)
			c, err := linesock.Dial(addr, nil)
			if err != nil {
				t.Fatalf("dial: %s", err)
			}
			defer c.Close()
			conn := acceptOne(t, l)

			go func() {
				conn.Write([]byte("X"))
				conn.Close()
			}()

			msg, err := c.Recv()
			if err != nil {
				t.Fatalf("recv tail: %s", err)
			}
			if msg != "X" {
				t.Errorf("recv %q, want %q", msg, "X")
			}
			if _, err = c.Recv(); err != errs.ErrConnClosed {
				t.Errorf("recv after tail: %v, want %v", err, errs.ErrConnClosed)
			}
		})
	}
}

func TestRecvPeerClosedEmpty(t *testing.T) {
	for _, tp := range testTransports {
		t.Run(tp.name, func(t *testing.T) {
			l, addr := startPeer(t, tp.name)
			c, err := linesock.Dial(addr, nil)
			if err != nil {
				t.Fatalf("dial: %s", err)
			}
			defer c.Close()
			conn := acceptOne(t, l)

			go conn.Close()

			if _, err = c.Recv(); err != errs.ErrConnClosed {
				t.Errorf("recv: %v, want %v", err, errs.ErrConnClosed)
			}
		})
	}
}

func TestPostCloseRejection(t *testing.T) {
	for _, tp := range testTransports {
		t.Run(tp.name, func(t *testing.T) {
			l, addr := startPeer(t, tp.name)
			c, err := linesock.Dial(addr, nil)
			if err != nil {
				t.Fatalf("dial: %s", err)
			}
			acceptOne(t, l)

			if err = c.Close(); err != nil {
				t.Fatalf("close: %s", err)
			}
			if err = c.Send("nope"); err != errs.ErrClosed {
				t.Errorf("send after close: %v, want %v", err, errs.ErrClosed)
			}
			if _, err = c.Recv(); err != errs.ErrClosed {
				t.Errorf("recv after close: %v, want %v", err, errs.ErrClosed)
			}
			// idempotent
			if err = c.Close(); err != nil {
				t.Errorf("second close: %s", err)
			}
		})
	}
}

func TestRecvTimeoutPreservesBuffer(t *testing.T) {
	// no ws here: gorilla/websocket treats any read error, deadline
	// included, as fatal to the connection
	for _, tp := range testTransports {
		if tp.name == "ws" {
			continue
		}
		t.Run(tp.name, func(t *testing.T) {
			l, addr := startPeer(t, tp.name)
			c, err := linesock.Dial(addr,
				options.NewOptions().WithOption(linesock.OptionTimeout, 80*time.Millisecond))
			if err != nil {
				t.Fatalf("dial: %s", err)
			}
			defer c.Close()
			conn := acceptOne(t, l)

			timedOut := make(chan struct{})
			go func() {
				conn.Write([]byte("par"))
				<-timedOut
				conn.Write([]byte("tial\n"))
			}()

			if _, err = c.Recv(); err != errs.ErrTimeout {
				t.Fatalf("recv: %v, want %v", err, errs.ErrTimeout)
			}
			close(timedOut)

			msg, err := c.Recv()
			if err != nil {
				t.Fatalf("recv after timeout: %s", err)
			}
			if msg != "partial" {
				t.Errorf("recv %q, want %q", msg, "partial")
			}
		})
	}
}

func TestSendEmbeddedDelimiterRejected(t *testing.T) {
	l, addr := startPeer(t, "tcp")
	c, err := linesock.Dial(addr, nil)
	if err != nil {
		t.Fatalf("dial: %s", err)
	}
	defer c.Close()
	acceptOne(t, l)

	if err = c.Send("a\nb"); err != errs.ErrEmbeddedDelim {
		t.Errorf("send: %v, want %v", err, errs.ErrEmbeddedDelim)
	}
}

func TestRecvInvalidUTF8(t *testing.T) {
	l, addr := startPeer(t, "tcp")
	c, err := linesock.Dial(addr, nil)
	if err != nil {
		t.Fatalf("dial: %s", err)
	}
	defer c.Close()
	conn := acceptOne(t, l)

	go conn.Write([]byte{0xff, 0xfe, '\n'})

	if _, err = c.Recv(); err != errs.ErrInvalidUTF8 {
		t.Errorf("recv: %v, want %v", err, errs.ErrInvalidUTF8)
	}
}

func TestConcurrentSendsDoNotInterleave(t *testing.T) {
	const (
		senders           = 8
		messagesPerSender = 25
	)

	l, addr := startPeer(t, "tcp")
	c, err := linesock.Dial(addr, nil)
	if err != nil {
		t.Fatalf("dial: %s", err)
	}
	defer c.Close()
	conn := acceptOne(t, l)

	counts := make(chan map[string]int, 1)
	go func() {
		got := make(map[string]int)
		scanner := bufio.NewScanner(conn)
		for i := 0; i < senders*messagesPerSender; i++ {
			if !scanner.Scan() {
				t.Errorf("peer scan stopped early: %v", scanner.Err())
				break
			}
			got[scanner.Text()]++
		}
		counts <- got
	}()

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := strings.Repeat(string(rune('a'+i)), 16+i*17)
			for j := 0; j < messagesPerSender; j++ {
				if err := c.Send(msg); err != nil {
					t.Errorf("send: %s", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	got := <-counts
	for i := 0; i < senders; i++ {
		msg := strings.Repeat(string(rune('a'+i)), 16+i*17)
		if got[msg] != messagesPerSender {
			t.Errorf("sender %d: %d intact frames, want %d", i, got[msg], messagesPerSender)
		}
	}
}

func TestWithClosesClient(t *testing.T) {
	l, addr := startPeer(t, "tcp")

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := l.Accept()
		if err != nil {
			t.Errorf("accept: %s", err)
			return
		}
		defer conn.Close()
		if _, err := bufio.NewReader(conn).ReadString('\n'); err != nil {
			t.Errorf("peer read: %s", err)
		}
	}()

	var leaked *linesock.Client
	wantErr := errs.Err("done with it")
	err := linesock.With(addr, nil, func(c *linesock.Client) error {
		leaked = c
		if err := c.Send("ping"); err != nil {
			return err
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("with: %v, want %v", err, wantErr)
	}
	<-done

	if err = leaked.Send("after"); err != errs.ErrClosed {
		t.Errorf("send after with: %v, want %v", err, errs.ErrClosed)
	}
}

func TestConnect(t *testing.T) {
	l, addr := startPeer(t, "tcp")
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(addr, "tcp://"))
	if err != nil {
		t.Fatalf("split %q: %s", addr, err)
	}
	port, _ := strconv.Atoi(portStr)

	c, err := linesock.Connect(host, port, time.Second)
	if err != nil {
		t.Fatalf("connect: %s", err)
	}
	defer c.Close()
	conn := acceptOne(t, l)

	go conn.Write([]byte("pong\n"))

	msg, err := c.Recv()
	if err != nil {
		t.Fatalf("recv: %s", err)
	}
	if msg != "pong" {
		t.Errorf("recv %q, want %q", msg, "pong")
	}
}

func TestConnectBadPort(t *testing.T) {
	if _, err := linesock.Connect("127.0.0.1", 70000, 0); err != errs.ErrBadAddr {
		t.Errorf("connect: %v, want %v", err, errs.ErrBadAddr)
	}
}

func TestDialUnknownScheme(t *testing.T) {
	if _, err := linesock.Dial("foo://nowhere", nil); err != errs.ErrBadTransport {
		t.Errorf("dial: %v, want %v", err, errs.ErrBadTransport)
	}
}

func TestDialRefused(t *testing.T) {
	if _, err := linesock.Dial("inproc://nobody-listening", nil); err != transport.ErrConnRefused {
		t.Errorf("dial: %v, want %v", err, transport.ErrConnRefused)
	}
}
