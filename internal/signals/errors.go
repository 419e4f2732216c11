package signals

import "errors"

// channelNotFoundError reports a channel that is not in the registry.
type channelNotFoundError struct{ name Name }

func (e channelNotFoundError) Error() string { return "signal channel not found: " + string(e.name) }

// IsChannelNotFound reports whether err (or any error joined into it) is a
// missing channel.
func IsChannelNotFound(err error) bool {
	var e channelNotFoundError
	return errors.As(err, &e)
}
