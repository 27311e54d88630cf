package helpers

import (
	"encoding/json"
	"strconv"
)

const maxLoggedMessage = 256

// IntToString converts int64 to string.
func IntToString(i int64) string {
	return strconv.FormatInt(i, 10)
}

// ToJsonString converts any value to JSON string.
func ToJsonString(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Abbrev shortens a raw wire message for logging.
func Abbrev(msg []byte) string {
	if len(msg) <= maxLoggedMessage {
		return string(msg)
	}
	return string(msg[:maxLoggedMessage]) + "...(" + IntToString(int64(len(msg))) + " bytes)"
}
