// Package errors holds the sentinel errors shared by the SST service layers.
// Callers attach detail with fmt.Errorf("%w: ...") and match with errors.Is.
package errors

import (
	"fmt"
)

var (
	ErrNotFound           = fmt.Errorf("not found")
	ErrConflict           = fmt.Errorf("conflict")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrUnauthenticated    = fmt.Errorf("unauthenticated")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUnavailable        = fmt.Errorf("datastore unavailable")
)
