package orchestration

import "errors"

// ErrNotConfigured is reported when a turn needs a collaborator that was
// never configured.
var ErrNotConfigured = errors.New("response client not configured")
