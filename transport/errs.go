package transport

import (
	"github.com/linesock/linesock/errs"
)

// errors
const (
	ErrBadTransport = errs.ErrBadTransport
	ErrConnRefused  = errs.Err("connection refused")
	ErrNotListening = errs.Err("not listening")
	ErrAddrInUse    = errs.Err("address already in use")
)
