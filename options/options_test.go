package options

import (
	"testing"
	"time"
)

type optionName int

const (
	optionNameFlag optionName = iota
	optionNameCount
	optionNameWait
)

func TestOptionValues(t *testing.T) {
	var (
		flag  = NewBoolOption(optionNameFlag)
		count = NewIntOption(optionNameCount)
		wait  = NewTimeDurationOption(optionNameWait)
	)

	opts := NewOptions().
		WithOption(flag, true).
		WithOption(count, 3)

	if val, ok := opts.GetOption(flag); !ok || !flag.Value(val) {
		t.Errorf("flag: got %v/%v, want true", val, ok)
	}
	if got := count.Value(opts.GetOptionDefault(count, 0)); got != 3 {
		t.Errorf("count: got %d, want 3", got)
	}
	if got := wait.Value(opts.GetOptionDefault(wait, time.Second)); got != time.Second {
		t.Errorf("wait default: got %s, want %s", got, time.Second)
	}
	if n := len(opts.OptionValues()); n != 2 {
		t.Errorf("option values: got %d, want 2", n)
	}
}

func TestSetOptionValidates(t *testing.T) {
	wait := NewTimeDurationOption(optionNameWait)

	if err := NewOptions().SetOption(wait, "not a duration"); err != ErrInvalidOptionValue {
		t.Errorf("set: %v, want %v", err, ErrInvalidOptionValue)
	}
}
