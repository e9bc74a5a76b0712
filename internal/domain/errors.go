package domain

import "errors"

// Failure kinds surfaced by the pipeline. Handlers match them with errors.Is
// and turn each into a single user-visible reply; nothing here crashes the
// process.
var (
	ErrInvalidTrigger   = errors.New("no target post referenced")
	ErrNotFound         = errors.New("not found")
	ErrUnknownAction    = errors.New("unknown action")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrPermissionDenied = errors.New("permission denied")
)
