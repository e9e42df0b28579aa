package realtime

import "strings"

// Kind names one event stream. Every stream is addressed per recipient.
type Kind string

const (
	KindLocation     Kind = "location"
	KindNotification Kind = "notification"
	KindMessage      Kind = "message"
	KindGroupMessage Kind = "groupMessage"
)

// Key builds the bus key "<kind>_<recipientId>".
func Key(kind Kind, recipientID string) string {
	return string(kind) + "_" + recipientID
}

// ParseKey splits a bus key back into its kind and recipient.
func ParseKey(key string) (Kind, string, bool) {
	i := strings.IndexByte(key, '_')
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return Kind(key[:i]), key[i+1:], true
}

func kindLabel(key string) string {
	if k, _, ok := ParseKey(key); ok {
		return string(k)
	}
	return "unknown"
}
