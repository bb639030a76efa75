package service

import "time"

// Policy carries the accounting constants shared by the quota, charge and
// admin services. Values come from configuration; see infrastructure/config.
type Policy struct {
	// AdminUserID is the singleton admin caller id.
	AdminUserID int64
	// DefaultBalance is the starting balance for lazily created accounts and
	// the balance restored when special status is demoted.
	DefaultBalance int64
	// DailyGrant is the free-credit top-up applied at most once per calendar
	// day per normal account.
	DailyGrant int64
	// SpecialBalance is the sentinel balance set when an account is promoted
	// to special status.
	SpecialBalance int64
	// ChargeCost is the cost of one paid operation for a normal caller.
	ChargeCost int64
	// FeatureCaps maps feature tags to their per-day invocation ceiling.
	// Features absent from the map are uncapped.
	FeatureCaps map[string]int64
	// Location is the time zone in which calendar days are computed, for
	// both the daily grant and the usage caps.
	Location *time.Location
}

// Cap returns the daily ceiling for a feature, if it has one.
func (p Policy) Cap(feature string) (int64, bool) {
	cap, ok := p.FeatureCaps[feature]
	return cap, ok
}
