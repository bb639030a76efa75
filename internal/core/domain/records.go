package domain

import "time"

// BlockRecord exists iff the account is currently blocked. It is created by
// the admin block action and deleted by unblock, paired with the account's
// is_blocked flag.
type BlockRecord struct {
	UserID    int64     `json:"user_id" bson:"_id"`
	BlockedBy int64     `json:"blocked_by" bson:"blocked_by"`
	Reason    string    `json:"reason" bson:"reason"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// HistoryRecord is an append-only log entry written after a successful
// lookup. Immutable once written; read only by admin tooling.
type HistoryRecord struct {
	UserID    int64     `json:"user_id" bson:"user_id"`
	Query     string    `json:"query" bson:"query"`
	Feature   string    `json:"feature" bson:"feature"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
