// Package safe wraps calls whose failure must be logged but never crash
// the dashboard.
package safe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/timetracker/tdash/internal/logging"
)

// Close closes c and logs any error. A nil closer is ignored.
func Close(ctx context.Context, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// PanicError carries a recovered panic value.
type PanicError struct {
	Where string
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Where, e.Value)
}

// Recover is deferred at the top of a handler. It logs a panic and, when
// errp is not nil, stores it there as a *PanicError.
func Recover(ctx context.Context, where string, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	pe := &PanicError{Where: where, Value: r, Stack: debug.Stack()}
	logging.From(ctx).Error("Recovered from panic",
		slog.String("where", where),
		slog.Any("panic", r),
		slog.String("stack", string(pe.Stack)),
	)
	if errp != nil {
		*errp = pe
	}
}

// Call runs fn and converts a panic into an error.
func Call(ctx context.Context, where string, fn func() error) (err error) {
	defer Recover(ctx, where, &err)
	return fn()
}
