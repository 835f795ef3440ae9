package ipc

import (
	"github.com/linesock/linesock/options"
)

type optionName int

const (
	optionNameInputBufferSize optionName = iota
	optionNameOutputBufferSize
	optionNameSecurityDescriptor
)

// Options, used by the named-pipe listener on Windows
var (
	OptionInputBufferSize    = options.NewIntOption(optionNameInputBufferSize)
	OptionOutputBufferSize   = options.NewIntOption(optionNameOutputBufferSize)
	OptionSecurityDescriptor = options.NewStringOption(optionNameSecurityDescriptor)
)
