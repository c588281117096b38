package remindlib

import (
	"runtime/debug"

	"github.com/remindd/remindd/pkg/logger"
)

// SafeGo runs fn in a goroutine with panic recovery. Alarm firings and
// sound fetches are independent entry points; a panic in one must not take
// the daemon down. Panics are logged with a stack trace when l is non-nil.
func SafeGo(l logger.Logger, context string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil && l != nil {
				l.Error("panic [%s]: %v\n%s", context, r, debug.Stack())
			}
		}()
		fn()
	}()
}
