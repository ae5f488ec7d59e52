package translate

import "fmt"

// EndpointError reports that the model endpoint could not be reached or did
// not answer. Timeout marks the no-response-within-deadline case. Retryable.
type EndpointError struct {
	Endpoint string
	Timeout  bool
	Err      error
}

func (e *EndpointError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("model endpoint %s timed out: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("model endpoint %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *EndpointError) Unwrap() error {
	return e.Err
}

// ResponseFormatError reports a model response that cannot be deterministically
// spliced back onto the submitted cues, usually a segment-count mismatch. The
// affected batch fails rather than risk misaligning text and timestamps.
type ResponseFormatError struct {
	Expected int
	Got      int
	Detail   string
}

func (e *ResponseFormatError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf(
			"model response does not match batch: expected %d segments, got %d (%s)",
			e.Expected, e.Got, e.Detail,
		)
	}
	return fmt.Sprintf(
		"model response does not match batch: expected %d segments, got %d",
		e.Expected, e.Got,
	)
}
