package ws

import (
	"github.com/linesock/linesock/options"
)

type optionName int

const (
	optionNameReadBufferSize optionName = iota
	optionNameWriteBufferSize
	optionNamePendingSize
)

// Options
var (
	OptionReadBufferSize  = options.NewIntOption(optionNameReadBufferSize)
	OptionWriteBufferSize = options.NewIntOption(optionNameWriteBufferSize)
	OptionPendingSize     = options.NewIntOption(optionNamePendingSize)
)
