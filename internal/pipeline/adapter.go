package pipeline

import (
	"context"
	"errors"
	"net"
)

// Adapter is the capability one stage exposes. Implementations must return a
// stage-specific payload or an error; a *StageError carries the
// classification, anything else is classified by the runner.
type Adapter interface {
	Kind() StageKind
	Run(ctx context.Context, in Input) (any, error)
}

// ClassifyError converts an arbitrary adapter error into a StageError.
// Deadline breaches become timeouts, network-level failures are retryable
// upstream errors, everything unknown is an internal error.
func ClassifyError(err error) *StageError {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewStageError(ErrorKindTimeout, true, "%s", err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return NewStageError(ErrorKindInternal, false, "run canceled: %s", err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewStageError(ErrorKindTimeout, true, "%s", err.Error())
		}
		return NewStageError(ErrorKindUpstream, true, "%s", err.Error())
	}

	return NewInternalError("%s", err.Error())
}
