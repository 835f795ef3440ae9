//go:build windows

package ipc

import (
	"net"

	"github.com/Microsoft/go-winio"
	"github.com/linesock/linesock/options"
	"github.com/linesock/linesock/transport"
)

type (
	dialer struct {
		path string
	}

	listener struct {
		path     string
		listener net.Listener
	}
)

func (d *dialer) Dial(opts options.Options) (net.Conn, error) {
	conn, err := winio.DialPipe("\\\\.\\pipe\\"+d.path, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (l *listener) Listen(opts options.Options) error {
	config := &winio.PipeConfig{
		InputBufferSize:  int32(OptionInputBufferSize.Value(opts.GetOptionDefault(OptionInputBufferSize, 4096))),
		OutputBufferSize: int32(OptionOutputBufferSize.Value(opts.GetOptionDefault(OptionOutputBufferSize, 4096))),
		SecurityDescriptor: OptionSecurityDescriptor.Value(
			opts.GetOptionDefault(OptionSecurityDescriptor, "")),
		MessageMode: false,
	}

	listener, err := winio.ListenPipe("\\\\.\\pipe\\"+l.path, config)
	if err != nil {
		return err
	}
	l.listener = listener
	return nil
}

func (l *listener) Accept() (net.Conn, error) {
	if l.listener == nil {
		return nil, transport.ErrNotListening
	}
	return l.listener.Accept()
}

func (l *listener) Address() string {
	return "ipc://" + l.path
}

func (l *listener) Close() error {
	if l.listener == nil {
		return nil
	}
	return l.listener.Close()
}

func (t ipcTran) NewDialer(address string) (transport.Dialer, error) {
	var err error
	if address, err = transport.StripScheme(t, address); err != nil {
		return nil, err
	}
	return &dialer{path: address}, nil
}

func (t ipcTran) NewListener(address string) (transport.Listener, error) {
	var err error
	if address, err = transport.StripScheme(t, address); err != nil {
		return nil, err
	}
	return &listener{path: address}, nil
}
