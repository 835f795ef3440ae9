// Package all is used to register all transports. This allows a
// program to support every known transport with a single import.
package all

import (
	// import transports
	_ "github.com/linesock/linesock/transport/inproc"
	_ "github.com/linesock/linesock/transport/ipc"
	_ "github.com/linesock/linesock/transport/tcp"
	_ "github.com/linesock/linesock/transport/ws"
)
