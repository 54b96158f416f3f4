package nse

import "fmt"

// NetworkError wraps transport-level failures (DNS, timeout, connection
// reset). The monitor treats it as "no data this cycle".
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError reports a non-200 status or an undecodable body from the
// NSE API. Handled the same way as NetworkError by the monitor.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream error: non-200 status code: %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
