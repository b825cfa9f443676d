package balance

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned by Refresher.Refresh when a newer refresh for the
// same user started before this one finished.
var ErrSuperseded = errors.New("balance refresh superseded by a newer request")

// FetchError reports a failed store call. The computation that hit it is
// aborted; no partial balances are returned.
type FetchError struct {
	// Op names the store call, e.g. "list expenses".
	Op string
	// ID is the user or group the call was made for.
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
