package store

import (
	"encoding/base32"
	"time"
)

// crockfordBase32 is a sortable base32 alphabet (digits before letters).
const crockfordBase32 = "0123456789abcdefghjkmnpqrstvwxyz"

var crockfordEncoding = base32.NewEncoding(crockfordBase32).WithPadding(base32.NoPadding)

const (
	timestampBytes  = 6
	byteMask        = 0xFF
	maxSuffixLength = 4

	// maxIDSteps bounds how many milliseconds past t uniqueID looks at.
	maxIDSteps = 1000
)

// timestampID encodes the Unix millisecond timestamp of t in Crockford base32.
// 48 bits give 10 characters that sort lexicographically in time order.
func timestampID(t time.Time) string {
	ms := t.UnixMilli()

	buf := make([]byte, timestampBytes)
	for i := timestampBytes - 1; i >= 0; i-- {
		buf[i] = byte(ms & byteMask)
		ms >>= 8
	}

	return crockfordEncoding.EncodeToString(buf)
}

// uniqueID returns the timestamp id for t, or the first suffixed variant
// (a, b, ..., z, za, zb, ...) that taken does not report as used. When every
// suffix of a millisecond is taken it moves on to the next millisecond, so
// ids stay time ordered under bursts.
func uniqueID(t time.Time, taken func(id string) bool) (string, error) {
	for step := range maxIDSteps {
		if id, ok := freeID(timestampID(t.Add(time.Duration(step)*time.Millisecond)), taken); ok {
			return id, nil
		}
	}

	return "", ErrIDGenerationFailed
}

func freeID(base string, taken func(id string) bool) (string, bool) {
	if !taken(base) {
		return base, true
	}

	for suffix := nextSuffix(""); len(suffix) <= maxSuffixLength; suffix = nextSuffix(suffix) {
		if candidate := base + suffix; !taken(candidate) {
			return candidate, true
		}
	}

	return "", false
}

// nextSuffix increments a suffix like base-26 with carry-append:
// "" -> "a", "a" -> "b", ..., "z" -> "za", "zz" -> "zza".
func nextSuffix(suffix string) string {
	if suffix == "" {
		return "a"
	}

	last := suffix[len(suffix)-1]
	if last < 'z' {
		return suffix[:len(suffix)-1] + string(last+1)
	}

	return suffix + "a"
}
