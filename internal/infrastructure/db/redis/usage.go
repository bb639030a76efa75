package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Counters expire two days after creation: the previous day's counter must
// survive past midnight for observability, but nothing reads further back.
const usageTTL = 48 * 60 * 60

// incrWithCap atomically increments the counter unless it has already
// reached the cap. Returns {count, incremented}. The read and the increment
// run as one script, so the counter can never be observed above the cap.
var incrWithCap = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local cap = tonumber(ARGV[1])
if current >= cap then
	return {current, 0}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], tonumber(ARGV[2]))
end
return {current, 1}
`)

// UsageStore tracks per-(user, feature, day) invocation counters in Redis.
// Key format: usage:<user_id>:<feature>:<day>
type UsageStore struct {
	client *redis.Client
}

// NewUsageStore creates a UsageStore wrapping the given Redis client.
func NewUsageStore(client *redis.Client) *UsageStore {
	return &UsageStore{client: client}
}

// IncrWithCap increments the day-scoped counter unless it is at cap.
// allowed=false reports that the cap was already reached and nothing was
// incremented.
func (u *UsageStore) IncrWithCap(ctx context.Context, userID int64, feature, day string, cap int64) (int64, bool, error) {
	res, err := incrWithCap.Run(ctx, u.client, []string{u.key(userID, feature, day)}, cap, usageTTL).Slice()
	if err != nil {
		return 0, false, fmt.Errorf("usage incr: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("usage incr: unexpected script reply of length %d", len(res))
	}
	count, _ := res[0].(int64)
	incremented, _ := res[1].(int64)
	return count, incremented == 1, nil
}

// Count reads the current counter value; a missing key counts as zero.
func (u *UsageStore) Count(ctx context.Context, userID int64, feature, day string) (int64, error) {
	n, err := u.client.Get(ctx, u.key(userID, feature, day)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("usage count: %w", err)
	}
	return n, nil
}

func (u *UsageStore) key(userID int64, feature, day string) string {
	return fmt.Sprintf("usage:%d:%s:%s", userID, feature, day)
}
