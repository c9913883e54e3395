package pyramid

import "fmt"

// UpstreamReadError reports that the input collaborator failed to produce
// a plane. It carries the offending global channel index and is fatal for
// the run; reads are not retried.
type UpstreamReadError struct {
	Channel int
	Err     error
}

func (e *UpstreamReadError) Error() string {
	return fmt.Sprintf("upstream read failed for channel %d: %v", e.Channel, e.Err)
}

func (e *UpstreamReadError) Unwrap() error {
	return e.Err
}
