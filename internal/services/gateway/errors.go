package gateway

import "fmt"

// Error is a failure reported by the backend. Detail is the backend's own
// message, safe to show to the person at the terminal.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}
