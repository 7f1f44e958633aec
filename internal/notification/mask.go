package notification

import "strings"

// MaskDestination hides most of an address so it can be logged.
func MaskDestination(channel Channel, destination string) string {
	if channel == ChannelEmail {
		at := strings.LastIndex(destination, "@")
		if at <= 0 {
			return "***"
		}
		return destination[:1] + "***" + destination[at:]
	}

	if len(destination) <= 4 {
		return strings.Repeat("*", len(destination))
	}
	return strings.Repeat("*", len(destination)-4) + destination[len(destination)-4:]
}
