package linesock

import (
	"github.com/linesock/linesock/options"
)

type optionName int

const (
	optionNameTimeout optionName = iota
	optionNameRecvChunkSize
)

// Options
var (
	// OptionTimeout bounds every blocking read and write. Zero (the
	// default) blocks indefinitely.
	OptionTimeout = options.NewTimeDurationOption(optionNameTimeout)
	// OptionRecvChunkSize is the size of a single read from the
	// transport while assembling a message.
	OptionRecvChunkSize = options.NewIntOption(optionNameRecvChunkSize)
)
