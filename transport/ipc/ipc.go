// Package ipc implements the IPC transport on top of UNIX domain
// sockets, or Windows named pipes on Windows.
package ipc

import (
	"github.com/linesock/linesock/transport"
)

type ipcTran int

const (
	// Transport is a transport.Transport for inter-process communication.
	Transport = ipcTran(0)
)

func init() {
	transport.RegisterTransport(Transport)
}

func (t ipcTran) Scheme() string {
	return "ipc"
}
