package alerts

import "errors"

// ErrConflict reports that a conditional update or delete found a different
// revision than expected, or no row at all.
var ErrConflict = errors.New("alert changed concurrently")
