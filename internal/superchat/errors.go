package superchat

import (
	"errors"
	"fmt"
)

// ErrRequestFailed matches every non-2xx answer from the rendering endpoint.
var ErrRequestFailed = errors.New("failed request")

// RequestFailedError carries the status of a rejected render request.
type RequestFailedError struct {
	StatusCode int
	Status     string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("failed request: %s", e.Status)
}

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}
