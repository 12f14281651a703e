package mqtt

import "errors"

// ErrPublishFailed is returned when a message could not be delivered to the
// broker after every retry.
var ErrPublishFailed = errors.New("mqtt publish failed")
