package track

import "time"

// DefaultGranularity is the time bucket grid shared by collectors and the
// query engine.
const DefaultGranularity = 10 * time.Second

// RoundTimestamp rounds t to the nearest multiple of granularity, resolving
// exact midpoints towards the even multiple (banker's rounding). This differs
// from time.Time.Round, which rounds halves away from zero.
//
// The operation is idempotent: rounding an already rounded timestamp is a
// no-op.
func RoundTimestamp(t time.Time, granularity time.Duration) time.Time {
	if granularity <= 0 {
		return t
	}
	g := granularity.Nanoseconds()
	n := t.UnixNano()

	q := n / g
	r := n % g
	if r < 0 {
		q--
		r += g
	}

	switch {
	case 2*r > g:
		q++
	case 2*r == g:
		if q%2 != 0 {
			q++
		}
	}
	return time.Unix(0, q*g).In(t.Location())
}
