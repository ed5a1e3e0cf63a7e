package errors

import "errors"

// Inconceivable is panicked with on code paths that a well-formed grammar or
// tree can never reach.
var Inconceivable = errors.New("inconceivable")
