// Package sentinel holds the errors the user and role stores wrap. A missing
// row is ErrNotFound and a taken user name, email or remote id is ErrConflict.
// ErrInvalidState rejects a save of a user with no role attached. The user
// service maps each onto a dErrors kind.
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
