package helper

import "fmt"

// NewError wraps an error with the action that failed.
// The wrapped error stays available for errors.Is/errors.As.
func NewError(action string, err error) error {
	return fmt.Errorf("error in %s: %w", action, err)
}
