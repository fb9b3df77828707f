package app

import "errors"

// RefreshError is returned when a write went through but the list refresh
// that follows it failed. The local list may be behind the server.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return "written, but refresh failed: " + e.Err.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// written reports whether err still means the write reached the server.
func written(err error) bool {
	var rerr *RefreshError
	return err == nil || errors.As(err, &rerr)
}

func refreshed(err error) error {
	if err == nil {
		return nil
	}
	return &RefreshError{Err: err}
}
