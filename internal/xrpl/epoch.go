package xrpl

import "time"

// The XRP Ledger counts seconds from 2000-01-01T00:00:00Z, not the Unix
// epoch. The conversion lives here and nowhere else; the rest of the
// codebase only ever sees time.Time.
const rippleEpochOffset int64 = 946684800

// RippleTime converts a ledger close time to a time.Time in UTC.
func RippleTime(secs int64) time.Time {
	return time.Unix(secs+rippleEpochOffset, 0).UTC()
}

// ToRippleTime converts a time.Time to ledger seconds.
func ToRippleTime(t time.Time) int64 {
	return t.Unix() - rippleEpochOffset
}
