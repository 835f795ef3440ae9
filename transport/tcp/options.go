package tcp

import (
	"github.com/linesock/linesock/options"
)

type optionName int

const (
	optionNameNoDelay optionName = iota
	optionNameKeepAlive
	optionNameKeepAliveTime
)

// Options
var (
	OptionNoDelay       = options.NewBoolOption(optionNameNoDelay)
	OptionKeepAlive     = options.NewBoolOption(optionNameKeepAlive)
	OptionKeepAliveTime = options.NewTimeDurationOption(optionNameKeepAliveTime)
)
