package emulator

import (
	"errors"

	"github.com/ezrec/rvemu/translate"
)

var f = translate.From

var (
	ErrNoProgram = errors.New(f("no program loaded"))
)
