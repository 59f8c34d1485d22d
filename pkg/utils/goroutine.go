package utils

import (
	"context"
	"fmt"
	"runtime/debug"

	"liirat-news/pkg/logger"
)

// GoSafe runs fn in a goroutine and recovers from panics.
func GoSafe(fn func()) {
	go RunSafe(fn)
}

// RunSafe runs fn and swallows any panic after printing the stack.
func RunSafe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("recovered from panic: %v\n%s\n", r, debug.Stack())
		}
	}()
	fn()
}

// ShouldContinue reports false once ctx is done.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.Warn("Context done, stopping work", logger.ErrorField(ctx.Err()))
		return false
	default:
		return true
	}
}
