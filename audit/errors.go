package audit

import "errors"

// ErrPublishFailed is returned when a record could not be delivered.
var ErrPublishFailed = errors.New("failed to publish audit record")
