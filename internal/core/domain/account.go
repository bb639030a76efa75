package domain

import (
	"errors"
	"time"
)

// CallerRole classifies the party making a chargeable request.
type CallerRole string

const (
	// CallerAdmin is the singleton operator configured by ADMIN_USER_ID.
	CallerAdmin CallerRole = "admin"
	// CallerSpecial is an account promoted to unlimited-credit status.
	CallerSpecial CallerRole = "special"
	// CallerNormal is every other account.
	CallerNormal CallerRole = "normal"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrBlocked = errors.New("account is blocked")
var ErrInsufficientCredits = errors.New("insufficient credits")
var ErrDailyCapReached = errors.New("daily feature cap reached")
var ErrAlreadyBlocked = errors.New("account already blocked")
var ErrNotBlocked = errors.New("account is not blocked")
var ErrAlreadySpecial = errors.New("account already has special status")
var ErrNotSpecial = errors.New("account does not have special status")
var ErrNotAdmin = errors.New("caller is not the admin")
var ErrRefundFailed = errors.New("refund failed")
var ErrInvalidAmount = errors.New("amount must be positive")

// Account is the per-caller ledger entry. Accounts are created lazily on
// first interaction and never hard-deleted; blocking is a soft state.
type Account struct {
	UserID       int64     `json:"user_id" bson:"_id"`
	Credits      int64     `json:"credits" bson:"credits"`
	LastGrantDay string    `json:"last_grant_day,omitempty" bson:"last_grant_day,omitempty"`
	IsBlocked    bool      `json:"is_blocked" bson:"is_blocked"`
	IsSpecial    bool      `json:"is_special" bson:"is_special"`
	DisplayName  string    `json:"display_name,omitempty" bson:"display_name,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Role derives the caller role for this account. The role is computed fresh
// on every request because special status can change between requests.
func (a *Account) Role(adminUserID int64) CallerRole {
	switch {
	case a.UserID == adminUserID:
		return CallerAdmin
	case a.IsSpecial:
		return CallerSpecial
	default:
		return CallerNormal
	}
}
