package notify

import "fmt"

// DispatchError is returned when a side effect could not be delivered.
type DispatchError struct {
	Kind     string
	Endpoint string
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (e *DispatchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s delivery to %s failed with status %d: %v", e.Kind, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s delivery to %s failed: %v", e.Kind, e.Endpoint, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
