package domain

// DenyReason identifies why a chargeable operation was refused.
type DenyReason string

const (
	DenyBlocked             DenyReason = "blocked"
	DenyInsufficientCredits DenyReason = "insufficient_credits"
	DenyDailyCapReached     DenyReason = "daily_cap_reached"
)

// Decision is the outcome of evaluating a caller against the quota policy.
// When Allowed is false, Reason carries the terminal deny reason and no
// charge has been taken.
type Decision struct {
	Allowed bool
	Cost    int64
	Reason  DenyReason
}

// Allow builds a positive decision with the given cost.
func Allow(cost int64) Decision {
	return Decision{Allowed: true, Cost: cost}
}

// Deny builds a terminal negative decision.
func Deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Err maps a deny reason to its sentinel error, for callers that prefer
// error-style handling over inspecting the decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case DenyBlocked:
		return ErrBlocked
	case DenyDailyCapReached:
		return ErrDailyCapReached
	default:
		return ErrInsufficientCredits
	}
}
