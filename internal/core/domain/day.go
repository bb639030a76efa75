package domain

import "time"

// dayFormat is the idempotency key format for everything day-scoped: the
// daily credit grant and the per-feature usage counters.
const dayFormat = "2006-01-02"

// Day renders t as a calendar day in the given location. Every day-boundary
// comparison in the system goes through this one function so the grant and
// the usage caps can never drift apart.
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dayFormat)
}
