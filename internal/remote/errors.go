package remote

import "errors"

// ErrNotFound is returned by reads and property updates that address an
// entity absent from the tree. Removals stay idempotent and never return it.
var ErrNotFound = errors.New("not found")
