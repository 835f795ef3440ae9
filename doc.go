// Package linesock provides a line-delimited message client over
// stream transports. Outbound strings are framed with a trailing
// line-feed and inbound bytes are reassembled into delimited
// messages. A Client owns exactly one connection and is safe for
// concurrent use; there is no reconnection, a closed Client must be
// replaced.
package linesock
