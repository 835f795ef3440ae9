package errs

// Err is a constant string error, comparable with ==.
type Err string

func (e Err) Error() string {
	return string(e)
}

// errors
const (
	ErrClosed        = Err("client is closed")
	ErrConnClosed    = Err("connection closed by peer")
	ErrBrokenWrite   = Err("connection broken while sending")
	ErrTimeout       = Err("operation time out")
	ErrInvalidUTF8   = Err("message is not valid utf-8")
	ErrEmbeddedDelim = Err("message contains an embedded delimiter")
	ErrBadAddr       = Err("invalid address")
	ErrBadTransport  = Err("invalid or unsupported transport")
)
