// Package sentinel holds store-level error facts that services translate
// into domain errors.
package sentinel

import "errors"

// ErrNotFound is returned (optionally wrapped) when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")
