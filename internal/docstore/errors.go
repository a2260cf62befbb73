package docstore

import "errors"

// ErrNotFound - the referenced document does not exist.
var ErrNotFound = errors.New("docstore: not found")

// ErrPrecondition - a conditional update found the document changed
// underneath it; nothing was written.
var ErrPrecondition = errors.New("docstore: precondition failed")

// ErrUnavailable - the store could not be reached. Callers surface this,
// they do not retry claim or transition writes.
var ErrUnavailable = errors.New("docstore: unavailable")
