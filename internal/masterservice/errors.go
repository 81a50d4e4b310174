package masterservice

import "errors"

// ErrLeaseStillHeld is returned by Startup when a prior generation of the
// same address has a higher start code still on record (spec §4.1 step 1).
var ErrLeaseStillHeld = errors.New("masterservice: lease still held by a newer generation")
