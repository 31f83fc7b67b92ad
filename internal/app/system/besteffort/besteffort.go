// internal/app/system/besteffort/besteffort.go

// Package besteffort wraps side effects whose failure must never reach
// the caller (avatar refresh, nickname sync, welcome notifications,
// comment mirroring). The outcome is still returned so call sites can
// log it instead of silently discarding errors.
package besteffort

import (
	"go.uber.org/zap"
)

// Result is the outcome of a best-effort operation.
type Result struct {
	Op  string
	Err error
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Log writes a warning for a failed operation and is a no-op on success.
// It returns the receiver so call sites can chain or ignore it.
func (r Result) Log(log *zap.Logger, fields ...zap.Field) Result {
	if r.Err != nil && log != nil {
		fields = append(fields, zap.String("op", r.Op), zap.Error(r.Err))
		log.Warn("best-effort operation failed", fields...)
	}
	return r
}

// Do runs fn and captures its error under the given operation name.
func Do(op string, fn func() error) Result {
	return Result{Op: op, Err: fn()}
}
