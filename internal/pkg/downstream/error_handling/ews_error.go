package error_handling

import "fmt"

// EWSError is returned when the EWS endpoint could not be reached or answered
// with a non-success status and a body that is not a SOAP document.
type EWSError struct {
	StatusCode int // -1 when no HTTP response was received
	Body       []byte
	Err        error
}

func NewEWSError(err error, statusCode ...int) *EWSError {
	errObj := &EWSError{Err: err}
	if len(statusCode) > 0 {
		errObj.StatusCode = statusCode[0]
	}
	return errObj
}

func (e *EWSError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("EWS error: statusCode=%d, err:%v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("EWS error: statusCode=%d, err:%v, body=%s", e.StatusCode, e.Err, e.Body)
}

func (e *EWSError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether the request never got an HTTP response.
func (e *EWSError) IsTransportError() bool {
	return e.StatusCode == -1
}
