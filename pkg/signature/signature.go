package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// ErrStaleTimestamp is returned when a request timestamp falls outside the
// accepted freshness window.
var ErrStaleTimestamp = errors.New("request timestamp outside allowed window")

// ErrBadTimestamp is returned when a request timestamp cannot be parsed.
var ErrBadTimestamp = errors.New("request timestamp is not a valid millisecond value")

// Compute returns the hex-encoded HMAC-SHA256 of "body:timestamp" keyed by
// the game secret. Clients sign the exact raw request body they send.
func Compute(secret string, body []byte, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	mac.Write([]byte(":"))
	mac.Write([]byte(timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the claimed signature matches the expected HMAC for
// the given body, timestamp and secret. Comparison is constant-time.
func Verify(secret string, body []byte, timestamp, claimed string) bool {
	expected := Compute(secret, body, timestamp)
	return hmac.Equal([]byte(expected), []byte(claimed))
}

// CheckTimestamp rejects timestamps older or newer than maxAge relative to
// now. The timestamp is a unix millisecond value as produced by the game
// SDKs.
func CheckTimestamp(timestamp string, now time.Time, maxAge time.Duration) error {
	ms, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrBadTimestamp
	}
	ts := time.UnixMilli(ms)
	diff := now.Sub(ts)
	if diff < 0 {
		diff = -diff
	}
	if diff > maxAge {
		return ErrStaleTimestamp
	}
	return nil
}
