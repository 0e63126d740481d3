package goroutine

import (
	"bytes"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var running atomic.Int32

// Running is the number of goroutines started by New that have not returned.
func Running() int32 {
	return running.Load()
}

// New runs function on its own goroutine. A panic is logged with its stack
// and then re-raised.
func New(function func()) {
	running.Inc()
	go func() {
		defer running.Dec()
		defer DumpStack(true)
		function()
	}()
}

// WithRecover is New without re-raising the panic.
func WithRecover(handler func()) {
	running.Inc()
	go func() {
		defer running.Dec()
		defer DumpStack(false)
		handler()
	}()
}

func DumpStack(exitIfPanic bool) {
	if err := recover(); err != nil {
		var buf bytes.Buffer
		buf.WriteString(fmt.Sprintf("Panic: %v\n", err))
		buf.Write(debug.Stack())
		logrus.WithField("obj", err).WithField("goroutines", running.Load()).Errorf("panic %v ", buf.String())
		if exitIfPanic {
			panic(err)
		}
	}
}
